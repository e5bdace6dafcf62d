// Package ratelimit implements the process-wide interval limiter that
// spaces out calls against the eCFR API.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/vitran/ecfr-analyzer/internal/metrics"
)

// Limiter admits one external call per configured interval. A single
// instance is shared by every component that talks to the remote API,
// so the spacing holds even if callers multiply.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter admitting one call per interval. A
// non-positive interval disables limiting.
func New(interval time.Duration) *Limiter {
	r := rate.Inf
	if interval > 0 {
		r = rate.Every(interval)
	}
	return &Limiter{limiter: rate.NewLimiter(r, 1)}
}

// Wait blocks until the next call is admitted, respecting the context.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(waited)
	}
	return nil
}
