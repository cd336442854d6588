package core

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Default rate-limit parameters for outbound model calls.
const (
	DefaultCallRate  = 4
	DefaultCallBurst = 10
)

// CallLimiter gates outbound model calls with a token bucket. Acquire never
// drops or rejects a call; it suspends the caller until a token is available
// or the context is cancelled. A single limiter should be shared across all
// concurrent runs so the aggregate external call rate stays bounded.
type CallLimiter struct {
	limiter *rate.Limiter
}

// NewCallLimiter creates a limiter with the given sustained rate (calls per
// second) and burst capacity. Non-positive values fall back to the defaults.
func NewCallLimiter(perSecond float64, burst int) *CallLimiter {
	if perSecond <= 0 {
		perSecond = DefaultCallRate
	}
	if burst <= 0 {
		burst = DefaultCallBurst
	}
	return &CallLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Acquire blocks until a token is available. It returns a non-nil error only
// when the context is cancelled or its deadline would expire before a token
// could be granted.
func (l *CallLimiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a token is immediately available, consuming one if so.
func (l *CallLimiter) Allow() bool { return l.limiter.Allow() }

var (
	sharedLimiter     *CallLimiter
	sharedLimiterOnce sync.Once
)

// SharedCallLimiter returns the process-wide limiter used by default for all
// model calls, created lazily with the default rate and burst.
func SharedCallLimiter() *CallLimiter {
	sharedLimiterOnce.Do(func() {
		sharedLimiter = NewCallLimiter(DefaultCallRate, DefaultCallBurst)
	})
	return sharedLimiter
}
