package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for request pacing
type Limiter interface {
	// Wait blocks until the next request is allowed or the context is cancelled
	Wait(ctx context.Context) error
}

// Pacer enforces a fixed courtesy delay between outgoing requests.
// The delay applies before every attempt, independent of retry backoff.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing one request per interval.
// A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the pacer allows the next request
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// noopLimiter never blocks
type noopLimiter struct{}

func (noopLimiter) Wait(ctx context.Context) error { return ctx.Err() }

// Noop returns a limiter that never blocks, for tests and dry runs
func Noop() Limiter {
	return noopLimiter{}
}
