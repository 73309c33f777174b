package ports

import "context"

// Recoverer brings the session back to a known state after a step failed
// (refresh the page, dismiss dialogs, restart the browser).
type Recoverer interface {
	Recover(ctx context.Context, cause error) error
}

// RecovererFunc adapts a function to the Recoverer interface.
type RecovererFunc func(ctx context.Context, cause error) error

// Recover calls f.
func (f RecovererFunc) Recover(ctx context.Context, cause error) error {
	return f(ctx, cause)
}

// BaseState makes sure the state root steps start from exists (e.g. browser open and
// logged in). It is called before a root hop is executed.
type BaseState interface {
	EnsureBase(ctx context.Context) error
}

// BaseStateFunc adapts a function to the BaseState interface.
type BaseStateFunc func(ctx context.Context) error

// EnsureBase calls f.
func (f BaseStateFunc) EnsureBase(ctx context.Context) error {
	return f(ctx)
}
