package middleware

import (
	"net/http"
	"sync"
	"time"
)

type bucket struct {
	count    int
	windowAt time.Time
}

// RateLimiter provides in-memory fixed-window rate limiting, keyed by
// client IP on the credential endpoints to slow password guessing.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
	}
}

// Allow returns true if the key has not exceeded limit in the given window.
func (rl *RateLimiter) Allow(key string, limit int, window time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok || now.After(b.windowAt) {
		rl.buckets[key] = &bucket{count: 1, windowAt: now.Add(window)}
		return true
	}
	b.count++
	return b.count <= limit
}

// Cleanup removes expired buckets.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, b := range rl.buckets {
		if now.After(b.windowAt) {
			delete(rl.buckets, key)
		}
	}
}

// RateLimit returns middleware that limits requests per client IP.
func RateLimit(limiter *RateLimiter, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(RealIP(r), limit, window) {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
