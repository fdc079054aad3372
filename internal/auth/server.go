package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// CallbackPort is the default port for the OAuth callback server
	CallbackPort = 8089
	// LoginTimeout bounds how long we wait for the browser round trip
	LoginTimeout = 5 * time.Minute
)

const successPage = `<!DOCTYPE html>
<html>
<head><title>Strava connected</title></head>
<body style="font-family: system-ui; text-align: center; margin-top: 20vh;">
<h1 style="color: #FC4C02;">Strava connected</h1>
<p>Rides can now be imported. Return to the terminal.</p>
</body>
</html>`

// Login runs the authorization code flow against a local callback server.
// Instructions for the user are written to out.
func Login(ctx context.Context, cfg *oauth2.Config, port int, out io.Writer) (*Grant, error) {
	if port == 0 {
		port = CallbackPort
	}

	state, err := newState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	codes := make(chan string, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.Handle("/callback", callbackHandler(state, codes, errs))

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			select {
			case errs <- fmt.Errorf("callback server: %w", err):
			default:
			}
		}
	}()
	defer stopServer(server)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Open this URL in your browser to connect Strava:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))
	fmt.Fprintln(out, "Waiting for Strava...")

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return nil, err
	case <-time.After(LoginTimeout):
		return nil, fmt.Errorf("no response from Strava after %v", LoginTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}

	return &Grant{Token: token, AthleteID: AthleteID(token)}, nil
}

// callbackHandler accepts exactly one redirect carrying the expected state
func callbackHandler(state string, codes chan<- string, errs chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		fail := func(status int, err error) {
			select {
			case errs <- err:
			default:
			}
			http.Error(w, err.Error(), status)
		}

		if q.Get("state") != state {
			fail(http.StatusBadRequest, errors.New("state mismatch in OAuth callback"))
			return
		}
		if msg := q.Get("error"); msg != "" {
			fail(http.StatusBadRequest, fmt.Errorf("strava denied access: %s", msg))
			return
		}
		code := q.Get("code")
		if code == "" {
			fail(http.StatusBadRequest, errors.New("no authorization code in callback"))
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, successPage)

		select {
		case codes <- code:
		default:
		}
	})
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func stopServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
