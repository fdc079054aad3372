package auth

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

const (
	// Strava OAuth endpoints
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
)

// Scopes needed to list rides and read their power streams.
// Strava expects them comma-separated in a single value.
var Scopes = []string{
	"read,activity:read_all",
}

// StravaConfig holds the Strava API application credentials
type StravaConfig struct {
	ClientID     string
	ClientSecret string
	CallbackPort int
}

// RedirectURL returns the local callback URL registered with Strava
func (c StravaConfig) RedirectURL() string {
	port := c.CallbackPort
	if port == 0 {
		port = CallbackPort
	}
	return fmt.Sprintf("http://localhost:%d/callback", port)
}

// NewOAuthConfig builds the oauth2 client configuration for Strava
func NewOAuthConfig(cfg StravaConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   AuthURL,
			TokenURL:  TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: cfg.RedirectURL(),
		Scopes:      Scopes,
	}
}

// Grant is the outcome of a completed authorization
type Grant struct {
	Token     *oauth2.Token
	AthleteID int64
}

// AthleteID pulls the athlete ID out of the token response.
// Strava embeds an "athlete" object next to the tokens.
func AthleteID(token *oauth2.Token) int64 {
	athlete, ok := token.Extra("athlete").(map[string]any)
	if !ok {
		return 0
	}
	if id, ok := athlete["id"].(float64); ok {
		return int64(id)
	}
	return 0
}

// StoredToken rebuilds an oauth2 token from persisted fields
func StoredToken(accessToken, refreshToken string, expiresAt time.Time) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       expiresAt,
	}
}
