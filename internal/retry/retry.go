// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry runs an operation again after transient failures with
// exponential backoff.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"
)

// BaseDelay is the wait before the first retry. It doubles on each further
// attempt. Tests override this to avoid real sleeps.
var BaseDelay = 2 * time.Second

// ErrPermanent marks an error that must not be retried. Wrap it with
// Permanent.
var ErrPermanent = errors.New("permanent failure")

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() []error { return []error{p.err, ErrPermanent} }

// Permanent wraps err so Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Do calls fn until it succeeds, returns a permanent error, or retries are
// exhausted. retries is the number of extra attempts after the first one;
// zero means fn runs exactly once. If the context is cancelled during a
// backoff wait Do returns ctx.Err(). After exhausting retries the last error
// is returned.
func Do(ctx context.Context, retries int, fn func(ctx context.Context) error) error {
	if retries < 0 {
		retries = 0
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrPermanent) || attempt >= retries {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * BaseDelay
		slog.Warn("retrying", "attempt", attempt+1, "of", retries, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
