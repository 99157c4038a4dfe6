package infra

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum interval between outbound requests.
// One instance is shared by every caller contacting the same upstream;
// concurrent callers queue on it in arrival order.
type RateLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewRateLimiter creates a limiter allowing one request per interval.
// A non-positive interval disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Wait blocks until a request slot is available or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return rl.limiter.Wait(ctx)
}

// Interval returns the configured minimum spacing.
func (rl *RateLimiter) Interval() time.Duration { return rl.interval }
