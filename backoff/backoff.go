// Package backoff computes delays between attempts and retries operations
// that failed with a retryable error.
package backoff

import "time"

// Backoff defines a strategy for calculating delay between retry attempts.
type Backoff interface {
	// Next returns the delay before retry number retry (0-indexed).
	Next(retry int) time.Duration
}
