package kiotviet

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds proactive throttling configuration.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero disables throttling.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// RateLimiter throttles outgoing requests with a token bucket.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	waits   int
}

// NewRateLimiter creates a rate limiter. A non-positive rate yields a
// limiter that never blocks.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	burst := cfg.BurstSize
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
	}
}

// Wait blocks until a request can be made without exceeding the rate.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	r.waits++
	r.mu.Unlock()
	return r.limiter.Wait(ctx)
}

// Waits returns how many requests passed through the limiter.
func (r *RateLimiter) Waits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waits
}
