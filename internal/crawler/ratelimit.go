package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum interval between outbound requests.
// The first Wait never blocks; every later Wait blocks until at least the
// configured interval has passed since the previous one returned.
//
// Design decision: We build on golang.org/x/time/rate with burst 1 rather
// than a hand-rolled sleep-and-timestamp loop because the limiter already
// handles context cancellation while waiting.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter with the given minimum interval.
// A zero or negative interval disables limiting entirely.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return &RateLimiter{}
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the next request is allowed or the context is
// cancelled. With limiting disabled it returns immediately.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
