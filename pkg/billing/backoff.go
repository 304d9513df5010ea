package billing

import (
	"math"
	"time"
)

// ExponentialBackoff computes the wait between processing attempts.
// interval(n) = min(Initial * Multiplier^(n-1), Max). No jitter: the
// retry sweep runs on a shared schedule, so spreading individual events
// buys nothing.
type ExponentialBackoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoff retries at roughly 1m, 4m, 16m, capped at an hour.
var DefaultBackoff = ExponentialBackoff{
	Initial:    time.Minute,
	Max:        time.Hour,
	Multiplier: 4,
}

// NextInterval returns the delay before the given attempt number.
// Attempt 1 is the first retry.
func (b ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := b.Initial
	if initial == 0 {
		initial = time.Minute
	}
	max := b.Max
	if max == 0 {
		max = time.Hour
	}
	multiplier := b.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if interval > float64(max) {
		return max
	}
	return time.Duration(interval)
}
