package ports

import (
	"context"
	"time"
)

// Predicate is polled by a Waiter until it reports true.
// An error counts as "not yet" and is kept as the reason if the wait times out.
type Predicate func(ctx context.Context) (bool, error)

// Waiter defines how the engine polls for a condition.
type Waiter interface {
	// WaitFor evaluates predicate every delay until it holds, the timeout expires or the
	// context is canceled. A timeout must produce an error; a satisfied predicate returns nil.
	WaitFor(ctx context.Context, predicate Predicate, delay, timeout time.Duration) error
}
