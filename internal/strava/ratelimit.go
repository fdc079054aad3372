package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Strava allows 100 requests per 15 minutes and 1000 per day.
const (
	shortWindow = 15 * time.Minute
	shortLimit  = 100
	dailyLimit  = 1000
	minSpacing  = 150 * time.Millisecond
	headerLimit = "X-RateLimit-Limit"
	headerUsage = "X-RateLimit-Usage"
)

// window is one rate-limit bucket
type window struct {
	limit    int
	used     int
	resetsAt time.Time
	next     func(now time.Time) time.Time
}

func (w *window) roll(now time.Time) {
	if now.After(w.resetsAt) {
		w.used = 0
		w.resetsAt = w.next(now)
	}
}

func (w *window) full() bool {
	return w.used >= w.limit
}

// RateLimiter spaces out requests and blocks when either Strava window is spent
type RateLimiter struct {
	mu    sync.Mutex
	short window
	daily window
	last  time.Time
	now   func() time.Time
}

// NewRateLimiter creates a limiter preloaded with Strava's default limits
func NewRateLimiter() *RateLimiter {
	return newRateLimiter(time.Now)
}

func newRateLimiter(now func() time.Time) *RateLimiter {
	start := now()
	nextShort := func(t time.Time) time.Time { return t.Add(shortWindow) }
	nextDay := func(t time.Time) time.Time { return t.Truncate(24 * time.Hour).Add(24 * time.Hour) }
	return &RateLimiter{
		short: window{limit: shortLimit, resetsAt: nextShort(start), next: nextShort},
		daily: window{limit: dailyLimit, resetsAt: nextDay(start), next: nextDay},
		now:   now,
	}
}

// Wait blocks until a request may be sent or ctx is done
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay := r.reserve()
		if delay <= 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// reserve claims a request slot, or returns how long to wait before retrying
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.short.roll(now)
	r.daily.roll(now)

	if r.daily.full() {
		return r.daily.resetsAt.Sub(now)
	}
	if r.short.full() {
		return r.short.resetsAt.Sub(now)
	}
	if gap := now.Sub(r.last); gap < minSpacing {
		return minSpacing - gap
	}

	r.short.used++
	r.daily.used++
	r.last = now
	return 0
}

// UpdateFromHeaders syncs usage and limits with what Strava reports.
// Both headers are "short,daily" pairs, e.g. "100,1000" and "34,512".
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, d, ok := parsePair(h.Get(headerUsage)); ok {
		r.short.used, r.daily.used = s, d
	}
	if s, d, ok := parsePair(h.Get(headerLimit)); ok {
		r.short.limit, r.daily.limit = s, d
	}
}

// Status returns the remaining requests in each window
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.limit - r.short.used, r.daily.limit - r.daily.used
}

func parsePair(v string) (int, int, bool) {
	first, second, found := strings.Cut(v, ",")
	if !found {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(second))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}
