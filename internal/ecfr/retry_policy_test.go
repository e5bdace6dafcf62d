package ecfr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(3, time.Millisecond, 10*time.Millisecond)
	serverErr := &StatusError{Code: 503, URL: "http://x"}
	clientErr := &StatusError{Code: 404, URL: "http://x"}
	transportErr := errors.New("connection refused")

	require.True(t, p.ShouldRetry(serverErr, 1))
	require.True(t, p.ShouldRetry(serverErr, 2))
	require.False(t, p.ShouldRetry(serverErr, 3), "budget exhausted")
	require.True(t, p.ShouldRetry(transportErr, 1))
	require.False(t, p.ShouldRetry(clientErr, 1), "client errors are terminal")
	require.False(t, p.ShouldRetry(nil, 1))
	require.False(t, p.ShouldRetry(context.Canceled, 1))
	require.False(t, p.ShouldRetry(context.DeadlineExceeded, 1))
}

func TestRetryPolicy_BackoffGrowsLinearlyAndCaps(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(5, time.Second, 3*time.Second)
	require.Equal(t, time.Second, p.Backoff(1))
	require.Equal(t, 2*time.Second, p.Backoff(2))
	require.Equal(t, 3*time.Second, p.Backoff(3))
	require.Equal(t, 3*time.Second, p.Backoff(4), "capped at max delay")
}

func TestNewRetryPolicy_Defaults(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(0, 0, 0)
	require.Equal(t, 3, p.MaxAttempts())
	require.Equal(t, time.Second, p.Backoff(1))
}

func TestStatusErrorClassification(t *testing.T) {
	t.Parallel()

	require.True(t, IsServerError(&StatusError{Code: 500}))
	require.True(t, IsServerError(&StatusError{Code: 503}))
	require.False(t, IsServerError(&StatusError{Code: 404}))
	require.True(t, IsClientError(&StatusError{Code: 404}))
	require.False(t, IsClientError(&StatusError{Code: 500}))
	require.False(t, IsClientError(errors.New("plain")))
}
