package messaging

import (
	"math"
	"time"
)

// Backoff computes the wait before each reconnection attempt.
type Backoff struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
	// MaxAttempts bounds the attempts of one reconnection cycle; 0 means unlimited.
	MaxAttempts int
}

func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    time.Second,
		Multiplier: 2,
		Max:        30 * time.Second,
	}
}

// Delay returns min(Initial * Multiplier^(attempt-1), Max). Attempts start at 1.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt-1))
	if b.Max > 0 && (delay > float64(b.Max) || math.IsInf(delay, 1)) {
		return b.Max
	}
	return time.Duration(delay)
}

// Exhausted reports whether attempt exceeds MaxAttempts.
func (b Backoff) Exhausted(attempt int) bool {
	return b.MaxAttempts > 0 && attempt > b.MaxAttempts
}
