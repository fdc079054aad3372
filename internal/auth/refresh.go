package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// refreshMargin is how long before expiry a token is considered stale
const refreshMargin = time.Minute

// PersistFunc saves a freshly refreshed token
type PersistFunc func(*oauth2.Token) error

// RefreshingSource is an oauth2.TokenSource that refreshes Strava tokens
// shortly before they expire and hands every new token to a PersistFunc.
type RefreshingSource struct {
	mu      sync.Mutex
	ctx     context.Context
	config  *oauth2.Config
	token   *oauth2.Token
	persist PersistFunc
	now     func() time.Time
}

// NewRefreshingSource wraps a stored token. persist may be nil.
func NewRefreshingSource(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, persist PersistFunc) *RefreshingSource {
	return &RefreshingSource{
		ctx:     ctx,
		config:  cfg,
		token:   token,
		persist: persist,
		now:     time.Now,
	}
}

// Token returns a valid token, refreshing it first when it is about to expire
func (s *RefreshingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.staleLocked() {
		return s.token, nil
	}

	fresh, err := s.config.TokenSource(s.ctx, s.token).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing Strava token: %w", err)
	}

	if s.persist != nil {
		if err := s.persist(fresh); err != nil {
			return nil, fmt.Errorf("saving refreshed token: %w", err)
		}
	}

	s.token = fresh
	return fresh, nil
}

// Stale reports whether the next Token call will hit the network
func (s *RefreshingSource) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staleLocked()
}

func (s *RefreshingSource) staleLocked() bool {
	return s.token.Expiry.Sub(s.now()) <= refreshMargin
}
