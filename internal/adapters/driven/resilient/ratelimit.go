package resilient

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration for a capability.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit. Zero or less disables limiting.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int

	// Cooldown is how long all callers pause after a provider reports a rate limit.
	Cooldown time.Duration
}

// DefaultRateLimit is conservative enough for hosted embedding and chat APIs.
var DefaultRateLimit = RateLimitConfig{RequestsPerSecond: 8, BurstSize: 16, Cooldown: 2 * time.Second}

// RateLimiter is a token bucket shared by all calls to one provider, with a
// cool-down window that opens whenever the provider answers 429.
type RateLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	retryAt  time.Time
	cooldown time.Duration
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	limit := rate.Inf
	burst := cfg.BurstSize
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(limit, burst),
		cooldown: cfg.Cooldown,
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any cool-down set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError opens the cool-down window.
func (r *RateLimiter) RecordRateLimitError() {
	if r.cooldown <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if until := time.Now().Add(r.cooldown); until.After(r.retryAt) {
		r.retryAt = until
	}
}

// Allow checks if a request can be made immediately without blocking.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}
