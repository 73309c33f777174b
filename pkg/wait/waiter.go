// Package wait provides the bounded polling used to verify arrival at a destination.
package wait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/navgraph/internal/logging"
	"github.com/aretw0/navgraph/pkg/ports"
	"github.com/cenkalti/backoff/v5"
)

// MinDelay is the smallest polling interval; shorter delays are raised to it.
const MinDelay = 10 * time.Millisecond

// ErrTimedOut is matched by TimedOutError.
var ErrTimedOut = errors.New("timed out")

var errNotYet = errors.New("condition not met yet")

// TimedOutError is returned when the predicate never held within the timeout.
type TimedOutError struct {
	Timeout time.Duration
	Checks  int

	// Last is the last error reported by the predicate, if any.
	Last error
}

func (e *TimedOutError) Error() string {
	msg := fmt.Sprintf("timed out after %s (%d checks)", e.Timeout, e.Checks)
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

func (e *TimedOutError) Is(target error) bool { return target == ErrTimedOut }

func (e *TimedOutError) Unwrap() error { return e.Last }

// Waiter implements ports.Waiter with a constant polling interval.
type Waiter struct {
	logger *slog.Logger
}

var _ ports.Waiter = (*Waiter)(nil)

// Option configures the Waiter.
type Option func(*Waiter)

// WithLogger sets a logger that reports every failed check at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Waiter) {
		w.logger = logger
	}
}

// New creates a Waiter.
func New(opts ...Option) *Waiter {
	w := &Waiter{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WaitFor polls predicate every delay until it holds or timeout expires.
// A timeout of zero or less performs exactly one check.
// Cancellation of ctx is returned as the context's error, not as a timeout.
func (w *Waiter) WaitFor(ctx context.Context, predicate ports.Predicate, delay, timeout time.Duration) error {
	if delay < MinDelay {
		delay = MinDelay
	}

	checks := 0
	var last error
	check := func(ctx context.Context) (struct{}, error) {
		checks++
		ok, err := predicate(ctx)
		if err != nil {
			last = err
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, errNotYet
		}
		return struct{}{}, nil
	}

	if timeout <= 0 {
		if _, err := check(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TimedOutError{Timeout: timeout, Checks: checks, Last: last}
		}
		return nil
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := backoff.Retry(deadlineCtx,
		func() (struct{}, error) { return check(deadlineCtx) },
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxElapsedTime(timeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			w.logger.Debug("condition not met, polling again", "err", err, "next", next)
		}),
	)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &TimedOutError{Timeout: timeout, Checks: checks, Last: last}
}

// Until is WaitFor on a default Waiter.
func Until(ctx context.Context, predicate ports.Predicate, delay, timeout time.Duration) error {
	return New().WaitFor(ctx, predicate, delay, timeout)
}
