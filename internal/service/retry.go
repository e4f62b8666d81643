package service

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RetryPolicy retries an operation with exponential backoff when the error is
// retryable. One policy instance is shared by every AI-service call so backoff
// behavior stays uniform.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(error) bool
}

func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Retryable:   IsRateLimitError,
	}
}

// Do runs op up to MaxAttempts times. Delays double between attempts
// (base, 2*base, ...). Context cancellation stops retrying immediately.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	delay := p.BaseDelay
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil || attempt >= p.MaxAttempts || p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// IsRateLimitError reports whether an AI-service error is a rate-limit
// rejection worth backing off on. The client surfaces these as wrapped HTTP
// errors, so string matching on the status is the contract we have.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}
