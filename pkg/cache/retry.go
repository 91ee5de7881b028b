package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnreachable is returned when a remote backend does not answer.
var ErrUnreachable = errors.New("cache backend unreachable")

// transient marks an error worth another attempt.
type transient struct{ err error }

func (t transient) Error() string { return t.err.Error() }
func (t transient) Unwrap() error { return t.err }

// Transient marks err as worth retrying. Transient(nil) is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transient{err}
}

// IsTransient reports whether err, or anything it wraps, was marked by Transient.
func IsTransient(err error) bool {
	return errors.As(err, new(transient))
}

var (
	retryAttempts = 3
	retryDelay    = time.Second
)

// Retry calls fn until it succeeds, returns an error not marked Transient, or
// runs out of attempts. The wait between attempts starts at retryDelay and
// doubles.
func Retry(ctx context.Context, fn func() error) error {
	wait := retryDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsTransient(err) || attempt == retryAttempts {
			return err
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
}
