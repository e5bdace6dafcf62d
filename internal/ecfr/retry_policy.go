package ecfr

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds retries against the remote API. Only server-side
// failures are retried; client errors are terminal immediately.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewRetryPolicy builds a policy with the given attempt budget and a
// linearly growing, capped backoff.
func NewRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}
	return &RetryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
	}
}

// MaxAttempts returns the attempt budget.
func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// ShouldRetry decides whether the error from the given attempt
// (1-based) warrants another try.
func (p *RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsClientError(err) {
		return false
	}
	// 5xx or transport-level failure.
	return true
}

// Backoff returns the wait before the attempt following the given one.
// The delay grows linearly with the attempt number, capped.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.baseDelay * time.Duration(attempt)
	if delay > p.maxDelay {
		return p.maxDelay
	}
	return delay
}
