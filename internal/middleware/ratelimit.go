package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goalbuddy/server/internal/ctxkeys"
)

// RateLimiter keeps a sliding window of hit times per key.
type RateLimiter struct {
	mu      sync.Mutex
	hits    map[string][]time.Time // oldest first
	limit   int
	window  time.Duration
	now     func() time.Time
	stopped chan struct{}
}

// NewRateLimiter allows limit hits per key within window. A background sweep
// forgets idle keys until ctx is done.
func NewRateLimiter(ctx context.Context, limit int, window time.Duration) *RateLimiter {
	rl := newRateLimiter(limit, window, time.Now)
	go rl.sweepLoop(ctx, max(window, time.Minute))
	return rl
}

func newRateLimiter(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		hits:    make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     now,
		stopped: make(chan struct{}),
	}
}

// Allow records a hit for key. Over the limit it records nothing and returns
// how long until the oldest hit leaves the window.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := rl.recent(rl.hits[key], now)

	if len(recent) >= rl.limit {
		rl.hits[key] = recent
		return false, recent[0].Add(rl.window).Sub(now)
	}

	rl.hits[key] = append(recent, now)
	return true, 0
}

func (rl *RateLimiter) recent(hits []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	i := slices.IndexFunc(hits, func(t time.Time) bool { return t.After(cutoff) })
	if i < 0 {
		return nil
	}
	return hits[i:]
}

func (rl *RateLimiter) sweepLoop(ctx context.Context, every time.Duration) {
	defer close(rl.stopped)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep drops keys with no hit inside the window.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, hits := range rl.hits {
		if len(rl.recent(hits, now)) == 0 {
			delete(rl.hits, key)
		}
	}
}

// KeyFunc picks the bucket a request is counted in.
type KeyFunc func(r *http.Request) string

// ByClientIP counts requests per client address.
func ByClientIP(r *http.Request) string {
	return "ip:" + clientIP(r)
}

// ByUser counts requests per authenticated user, falling back to the client
// address. Mount it inside RequireAuth.
func ByUser(r *http.Request) string {
	if user := ctxkeys.User(r.Context()); user != nil {
		return "user:" + strconv.FormatInt(user.ID, 10)
	}
	return ByClientIP(r)
}

// RateLimit answers 429 with Retry-After once key(r) is over the limiter's
// budget.
func RateLimit(limiter *RateLimiter, key KeyFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			k := key(r)

			ok, retryAfter := limiter.Allow(k)
			if !ok {
				slog.Warn("rate limit exceeded",
					"key", k,
					"path", r.URL.Path,
					"retry_after", retryAfter,
					"request_id", ctxkeys.RequestID(r.Context()),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
				return
			}

			next(w, r)
		}
	}
}

func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}

// clientIP prefers proxy headers, then the connection's address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
