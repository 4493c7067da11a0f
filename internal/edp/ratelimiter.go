package edp

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between outgoing upstream calls,
// so typeahead traffic does not hammer the municipal API.
type RateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// Wait blocks until enough time has passed since the previous call, or until
// the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	now := time.Now()
	next := r.lastCall.Add(r.interval)
	var wait time.Duration
	if now.Before(next) {
		wait = next.Sub(now)
		r.lastCall = next
	} else {
		r.lastCall = now
	}
	r.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
