package backoff

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff grows the delay as Initial * Factor^retry, capped at Max.
// With Jitter the delay is drawn uniformly from [0, delay].
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration

	// Factor defaults to 2 when zero
	Factor float64
	Jitter bool
}

func (e *ExponentialBackoff) Next(retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}
	factor := e.Factor
	if factor == 0 {
		factor = 2.0
	}

	delay := float64(e.Initial) * math.Pow(factor, float64(retry))
	if e.Max > 0 && delay > float64(e.Max) {
		delay = float64(e.Max)
	}

	if e.Jitter {
		delay = rand.Float64() * delay
	}
	return time.Duration(delay)
}

// NewExponentialBackoff returns a doubling backoff from 100ms up to 30s with
// jitter.
func NewExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		Initial: 100 * time.Millisecond,
		Max:     30 * time.Second,
		Factor:  2.0,
		Jitter:  true,
	}
}
