package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_SucceedsAfterRateLimit(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Retryable:   IsRateLimitError,
	}

	attempts := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("status 429 too many requests")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicy_NonRetryableFailsImmediately(t *testing.T) {
	policy := NewRetryPolicy(3, time.Millisecond)

	attempts := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("status 400 bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	policy := NewRetryPolicy(2, time.Millisecond)

	attempts := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("rate limit exceeded")
	})
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetryPolicy_ContextCancelled(t *testing.T) {
	policy := NewRetryPolicy(5, 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := policy.Do(ctx, func(ctx context.Context) error {
		return errors.New("429")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(errors.New("HTTP 429")))
	assert.True(t, IsRateLimitError(errors.New("Rate Limit exceeded")))
	assert.True(t, IsRateLimitError(errors.New("too many requests")))
	assert.False(t, IsRateLimitError(errors.New("connection refused")))
	assert.False(t, IsRateLimitError(context.DeadlineExceeded))
	assert.False(t, IsRateLimitError(nil))
}
