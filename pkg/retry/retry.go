package retry

import (
	"context"
	"errors"
	"time"
)

// sleep is the backoff delay function. Overridden in tests.
var sleep = time.Sleep

// state of a retry loop. Transitions: attempting → succeeded on success,
// attempting → backoff → attempting on transient failure while attempts
// remain, attempting → exhausted once the bound is reached or the error is
// permanent.
type state int

const (
	stateAttempting state = iota
	stateBackoff
	stateSucceeded
	stateExhausted
)

// Permanent wraps an error that must not be retried. Do stops immediately
// and returns the wrapped error.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }

func (p *Permanent) Unwrap() error { return p.Err }

// Do runs op up to attempts times, doubling the delay between attempts
// starting from base (base, 2*base, 4*base, ...). It returns nil as soon as
// op succeeds, the wrapped cause if op returns a *Permanent error, and the
// last error once attempts are exhausted or ctx ends during backoff.
func Do(ctx context.Context, attempts int, base time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	attempt := 0
	st := stateAttempting

	for {
		switch st {
		case stateAttempting:
			attempt++
			err := op()
			if err == nil {
				st = stateSucceeded
				break
			}
			var perm *Permanent
			if errors.As(err, &perm) {
				lastErr = perm.Err
				st = stateExhausted
				break
			}
			lastErr = err
			if attempt >= attempts {
				st = stateExhausted
			} else {
				st = stateBackoff
			}

		case stateBackoff:
			if err := ctx.Err(); err != nil {
				lastErr = err
				st = stateExhausted
				break
			}
			sleep(base << (attempt - 1))
			st = stateAttempting

		case stateSucceeded:
			return nil

		case stateExhausted:
			return lastErr
		}
	}
}
