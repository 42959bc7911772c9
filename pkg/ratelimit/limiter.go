package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request or ctx is done
	Wait(ctx context.Context) error
	// Reset resets the rate limiter state
	Reset()
}

// Interval spaces requests at least one interval apart.
// The first request after construction or Reset goes through immediately.
type Interval struct {
	interval time.Duration
	mu       sync.Mutex
	limiter  *rate.Limiter
}

// NewInterval creates a limiter allowing one request per interval.
// A non-positive interval disables limiting.
func NewInterval(interval time.Duration) *Interval {
	iv := &Interval{interval: interval}
	iv.limiter = iv.newLimiter()
	return iv
}

func (iv *Interval) newLimiter() *rate.Limiter {
	if iv.interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(iv.interval), 1)
}

// Allow checks if a request can proceed without waiting
func (iv *Interval) Allow() bool {
	iv.mu.Lock()
	l := iv.limiter
	iv.mu.Unlock()
	return l.Allow()
}

// Wait blocks until the next slot is available
func (iv *Interval) Wait(ctx context.Context) error {
	iv.mu.Lock()
	l := iv.limiter
	iv.mu.Unlock()
	return l.Wait(ctx)
}

// Reset forgets previous requests
func (iv *Interval) Reset() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.limiter = iv.newLimiter()
}

// Interval returns the configured spacing
func (iv *Interval) Interval() time.Duration {
	return iv.interval
}

// Pause sleeps for d or until ctx is done, whichever comes first
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Unlimited never blocks; used when politeness delays are disabled in tests
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}
