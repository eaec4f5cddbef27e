package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable reports that a remote backend could not be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

// transientError marks a failure worth another attempt.
type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// Transient marks err as temporary. Backoff.Do retries only marked errors.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

// IsTransient reports whether err or anything it wraps was marked Transient.
func IsTransient(err error) bool {
	var t transientError
	return errors.As(err, &t)
}

// Backoff is an exponential retry policy.
type Backoff struct {
	Attempts int           // total calls, at least one
	Delay    time.Duration // wait before the second call
	MaxDelay time.Duration // cap for the doubled delay; zero means none
}

// DefaultBackoff tries three times, waiting 100ms then 200ms.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 100 * time.Millisecond, MaxDelay: time.Second}

// Do calls fn until it succeeds, returns a non-transient error, or the
// attempts run out. A cancelled ctx ends the wait with ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	delay := b.Delay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsTransient(err) || attempt >= b.Attempts {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
}
