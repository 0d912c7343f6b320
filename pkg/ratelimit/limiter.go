package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed right now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// TokenBucket spreads n requests evenly over per, allowing a burst of n
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a limiter admitting n requests per period.
// A non-positive n yields an unlimited limiter.
func NewTokenBucket(n int, per time.Duration) *TokenBucket {
	if n <= 0 || per <= 0 {
		return newBucket(rate.Inf, 1)
	}
	return newBucket(rate.Every(per/time.Duration(n)), n)
}

// NewUnlimited creates a limiter that never blocks
func NewUnlimited() *TokenBucket {
	return newBucket(rate.Inf, 1)
}

func newBucket(limit rate.Limit, burst int) *TokenBucket {
	return &TokenBucket{limiter: rate.NewLimiter(limit, burst)}
}

func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}
