package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/navgraph/pkg/domain"
)

// stepFailure marks an error raised by a step callback, as opposed to a failed
// verification. Only step failures are eligible for recovery.
type stepFailure struct {
	hop   domain.Hop
	stage string
	err   error
}

func newStepFailure(hop domain.Hop, stage string, err error) *stepFailure {
	return &stepFailure{hop: hop, stage: stage, err: err}
}

func (f *stepFailure) Error() string {
	return fmt.Sprintf("%s of %s: %v", f.stage, f.hop, f.err)
}

func (f *stepFailure) Unwrap() error { return f.err }

// retryable reports whether recovering and running the plan again can change the outcome.
func (f *stepFailure) retryable(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if domain.IsResolutionError(f.err) {
		return false
	}
	return !errors.Is(f.err, context.Canceled) && !errors.Is(f.err, context.DeadlineExceeded)
}

func (f *stepFailure) hopError(attempt int, recoveryErr error) *domain.HopError {
	return &domain.HopError{
		Entity:      domain.Describe(f.hop.Entity),
		Destination: f.hop.Destination(),
		Stage:       f.stage,
		Attempt:     attempt,
		Err:         f.err,
		RecoveryErr: recoveryErr,
	}
}

// recover runs the recovery action once, bounded by the navigation's recovery timeout.
func (e *Engine) recover(ctx context.Context, nav *domain.NavContext, cause *stepFailure) error {
	e.logger.WarnContext(ctx, "navigation step failed, recovering",
		"destination", cause.hop.Destination(),
		"entity", domain.Describe(cause.hop.Entity),
		"stage", cause.stage,
		"err", cause.err,
	)

	var err error
	if e.recoverer != nil {
		rctx := ctx
		if timeout := nav.Options.RecoveryTimeout; timeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err = e.recoverer.Recover(rctx, cause.err)
		if err != nil {
			e.logger.ErrorContext(ctx, "recovery failed", "err", err)
		}
	}

	if e.hooks.OnRecover != nil {
		e.hooks.OnRecover(ctx, &domain.RecoveryEvent{
			Timestamp:   time.Now(),
			Entity:      domain.Describe(cause.hop.Entity),
			Destination: cause.hop.Destination(),
			Cause:       cause.err,
			Err:         err,
		})
	}
	return err
}
