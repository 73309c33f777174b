package runtime

import (
	"context"
	"time"

	"github.com/aretw0/navgraph/pkg/domain"
)

// runHop realizes one hop: re-enter it when already displayed, otherwise step and verify.
// satisfied is true when the caller already saw the hop displayed.
func (e *Engine) runHop(ctx context.Context, index int, hop domain.Hop, hc *domain.HopContext, satisfied bool) (*domain.Arrival, error) {
	start := time.Now()
	def := hop.Definition
	opts := hc.Options()

	ev := newHopEvent(index, hop, hc)
	fail := func(err error) error {
		ev.Outcome = domain.HopFailed
		ev.Err = err
		e.emitHop(ctx, ev, start)
		return err
	}

	here := satisfied
	if !here && !opts.Forces(hc.Terminal) {
		here = e.displayed(ctx, def, hc)
	}
	e.logger.DebugContext(ctx, "hop state",
		"phase", domain.PhaseExecuting,
		"destination", hc.Destination,
		"entity", ev.Entity,
		"here", here,
	)

	if here {
		if def.Resetter != nil && opts.WantsResetter(hc.Terminal) {
			if err := def.Resetter(ctx, hc); err != nil {
				return nil, fail(newStepFailure(hop, "resetter", err))
			}
			ev.ResetterUsed = true
		}
		ev.Outcome = domain.HopSkipped
	} else {
		if def.Step == nil {
			return nil, fail(&domain.FailedError{Entity: ev.Entity, Destination: hc.Destination, Err: errNoStep})
		}
		switch {
		case hop.Resolved():
			arrival, err := def.Prerequisite.Resolver(ctx, hc)
			if err != nil {
				return nil, fail(newStepFailure(hop, "prerequisite", err))
			}
			hc.Prerequisite = arrival
		case def.Prerequisite.KindOf() == domain.PrereqRoot && e.base != nil:
			if err := e.base.EnsureBase(ctx); err != nil {
				return nil, fail(newStepFailure(hop, "base state", err))
			}
		}
		for _, stage := range []struct {
			name string
			fn   domain.StepFunc
		}{
			{"pre-navigate", def.Before},
			{"step", def.Step},
			{"post-navigate", def.After},
		} {
			if stage.fn == nil {
				continue
			}
			if err := stage.fn(ctx, hc); err != nil {
				return nil, fail(newStepFailure(hop, stage.name, err))
			}
		}

		if def.IsDisplayed != nil {
			ev.Waited = true
			if err := e.verify(ctx, def, hc, opts); err != nil {
				return nil, fail(&domain.FailedError{Entity: ev.Entity, Destination: hc.Destination, Err: err})
			}
		}
		ev.Outcome = domain.HopExecuted
	}

	arrival := &domain.Arrival{Entity: hop.Entity, Destination: hc.Destination}
	if def.View != nil {
		arrival.View = def.View(ctx, hc)
	}

	e.logger.InfoContext(ctx, "navigation hop",
		"entity", ev.Entity,
		"destination", hc.Destination,
		"here", here,
		"resetter", ev.ResetterUsed,
		"view", arrival.View != nil,
		"waited", ev.Waited,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	e.emitHop(ctx, ev, start)
	return arrival, nil
}

// passHop accounts for a hop made redundant by a deeper hop that is already displayed.
// Nothing of the definition runs; the arrival carries no view.
func (e *Engine) passHop(ctx context.Context, index int, hop domain.Hop, hc *domain.HopContext) *domain.Arrival {
	ev := newHopEvent(index, hop, hc)
	ev.Outcome = domain.HopSkipped
	e.emitHop(ctx, ev, time.Now())
	return &domain.Arrival{Entity: hop.Entity, Destination: hc.Destination}
}

func newHopEvent(index int, hop domain.Hop, hc *domain.HopContext) *domain.HopEvent {
	return &domain.HopEvent{
		EntityType:  hop.Entity.EntityType(),
		Entity:      domain.Describe(hop.Entity),
		Destination: hc.Destination,
		Index:       index,
		Terminal:    hc.Terminal,
		Attempt:     hc.Nav.Attempt,
	}
}

// displayed evaluates the short-circuit predicate. Definitions without one never short-circuit.
func (e *Engine) displayed(ctx context.Context, def domain.StepDefinition, hc *domain.HopContext) bool {
	if def.IsDisplayed == nil {
		return false
	}
	return def.IsDisplayed(ctx, hc)
}

// verify polls the destination's predicate until it holds or the timeout expires.
func (e *Engine) verify(ctx context.Context, def domain.StepDefinition, hc *domain.HopContext, opts domain.NavOptions) error {
	e.logger.DebugContext(ctx, "verifying arrival",
		"phase", domain.PhaseVerifying,
		"destination", hc.Destination,
		"timeout", opts.Timeout,
	)
	return e.waiter.WaitFor(ctx, func(ctx context.Context) (bool, error) {
		return def.IsDisplayed(ctx, hc), nil
	}, opts.Delay, opts.Timeout)
}

func (e *Engine) emitHop(ctx context.Context, ev *domain.HopEvent, start time.Time) {
	if e.hooks.OnHop == nil {
		return
	}
	ev.Timestamp = time.Now()
	ev.Duration = time.Since(start)
	e.hooks.OnHop(ctx, ev)
}
