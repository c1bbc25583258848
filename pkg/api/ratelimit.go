package api

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/platinummonkey/tally/pkg/clock"
	"github.com/platinummonkey/tally/pkg/httputil"
)

// RateLimitConfig defines per-client rate limiting of report requests
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained rate a client may request reports at
	RequestsPerMinute int
	// Burst allows temporary bursts above the rate
	Burst int
}

// RateLimiter is a token bucket per client key
type RateLimiter struct {
	config RateLimitConfig
	clock  clock.Clock

	buckets map[string]*bucket
	mu      sync.Mutex
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// NewRateLimiter creates a new rate limiter. A nil clock uses the wall clock.
func NewRateLimiter(config RateLimitConfig, c clock.Clock) *RateLimiter {
	return &RateLimiter{
		config:  config,
		clock:   clock.OrReal(c),
		buckets: make(map[string]*bucket),
	}
}

func (rl *RateLimiter) capacity() float64 {
	return float64(rl.config.RequestsPerMinute + rl.config.Burst)
}

// Allow takes a token for key, reporting whether the request may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.refill(key)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Remaining returns the number of whole tokens left for key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return int(math.Floor(rl.refill(key).tokens))
}

// refill must be called with mu held
func (rl *RateLimiter) refill(key string) *bucket {
	now := rl.clock.Now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity(), lastUpdate: now}
		rl.buckets[key] = b
		return b
	}

	elapsed := now.Sub(b.lastUpdate)
	if elapsed > 0 {
		b.tokens = math.Min(rl.capacity(), b.tokens+elapsed.Minutes()*float64(rl.config.RequestsPerMinute))
		b.lastUpdate = now
	}
	return b
}

// Cleanup drops buckets that have been idle long enough to be full again
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastUpdate) > 2*time.Minute {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanup runs Cleanup every minute until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Middleware limits requests under /api/ by client IP. Health and metrics
// endpoints are never limited.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		key := clientIP(r)
		limit := fmt.Sprintf("%d", rl.config.RequestsPerMinute)
		if !rl.Allow(key) {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", "0")
			httputil.WriteErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-RateLimit-Limit", limit)
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", rl.Remaining(key)))
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
