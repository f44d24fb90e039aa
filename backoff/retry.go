package backoff

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAttemptsExhausted is joined to the last error when every attempt failed.
var ErrAttemptsExhausted = errors.New("max retry attempts exceeded")

// Retry runs fn up to attempts times, waiting b.Next between attempts while
// retryable reports the returned error as transient. A nil retryable retries
// every error.
func Retry(ctx context.Context, attempts int, b Backoff, retryable func(error) bool, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	if b == nil {
		b = NewExponentialBackoff()
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}

		if attempt < attempts-1 {
			timer := time.NewTimer(b.Next(attempt))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%w: %w", ErrAttemptsExhausted, lastErr)
}
