package http

import (
	"context"
	"time"
)

// RetryPolicy retries transport failures with exponential backoff.
type RetryPolicy struct {
	Attempts   int           // total tries, including the first
	BackoffMin time.Duration // wait after the first failure
	BackoffMax time.Duration // cap for later waits
	// OnRetry is called before each wait, if set.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Backoff returns the wait after the given failed attempt (1-based):
// BackoffMin * 2^(attempt-1), clamped to [BackoffMin, BackoffMax].
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BackoffMin
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.BackoffMax > 0 && d >= p.BackoffMax {
			return p.BackoffMax
		}
	}
	if p.BackoffMax > 0 && d > p.BackoffMax {
		return p.BackoffMax
	}
	return d
}

// Do runs fn until it succeeds, returns a non-transient error, or the
// attempts are used up. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = fn(ctx)
		if err == nil || !IsTransient(err) || i == attempts {
			return err
		}
		wait := p.Backoff(i)
		if p.OnRetry != nil {
			p.OnRetry(i, wait, err)
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
