package backoff

import "time"

// ConstantBackoff waits the same interval before every retry.
type ConstantBackoff struct {
	Interval time.Duration
}

func (c *ConstantBackoff) Next(int) time.Duration {
	return c.Interval
}

func NewConstantBackoff(interval time.Duration) *ConstantBackoff {
	return &ConstantBackoff{Interval: interval}
}
