package retry

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"
)

// Policy holds the transient-failure retry budget and backoff curve.
type Policy struct {
	// MaxAttempts caps the total number of sends for one logical request,
	// the first attempt included.
	MaxAttempts int

	// BaseDelay is the backoff before the first retry; each further retry
	// multiplies it by Multiplier, capped at MaxDelay.
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
}

// Retryable reports whether a failed attempt is transient. err is the
// transport-level error, if any; status is the HTTP status when a response
// was received. Context cancellation is never transient.
func (p Policy) Retryable(err error, status int) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		// No response at all: network-level failure.
		return true
	}
	return status == http.StatusTooManyRequests || status >= 500
}

// Decide maps a failed attempt to a retry decision and backoff delay.
// attempt is zero-based: attempt 0 is the first send.
func (p Policy) Decide(err error, status, attempt int) (bool, time.Duration) {
	if attempt >= p.MaxAttempts-1 {
		return false, 0
	}
	if !p.Retryable(err, status) {
		return false, 0
	}
	return true, p.Backoff(attempt)
}

// Backoff returns the delay before retrying the given zero-based attempt.
// Delays are monotonically non-decreasing in attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}

	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}

	d := float64(p.BaseDelay) * math.Pow(mult, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}
