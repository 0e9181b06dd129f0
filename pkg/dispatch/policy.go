package dispatch

import (
	"context"
	"time"
)

// RetryPolicy parametrizes delivery retries: how many attempts, how the
// backoff grows, and which outcomes are worth retrying. It is plain data so
// tests can exercise the dispatcher deterministically.
type RetryPolicy struct {
	// MaxAttempts is the total number of POST attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt; each further
	// attempt doubles it.
	BaseDelay time.Duration

	// MaxDelay caps the backoff. Zero means uncapped.
	MaxDelay time.Duration

	// Retriable decides whether an attempt outcome is transient. status is
	// zero when the request failed before a response arrived.
	Retriable func(status int, err error) bool
}

// DefaultRetriable treats transport errors and 5xx responses as transient.
// Everything else (4xx, payload too large) surfaces immediately.
func DefaultRetriable(status int, err error) bool {
	if err != nil {
		return true
	}
	return status >= 500
}

// Delay returns the backoff before the given attempt (attempt 2 waits
// BaseDelay, attempt 3 twice that, and so on).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := p.BaseDelay << (attempt - 2)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Retriable == nil {
		p.Retriable = DefaultRetriable
	}
	return p
}

// sleepFunc waits for the given duration, aborting early on context
// cancellation. Injected so tests can run without real delays.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
