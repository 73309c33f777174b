package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/navgraph/internal/logging"
	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/aretw0/navgraph/pkg/ports"
	"github.com/aretw0/navgraph/pkg/wait"
)

// errNoStep is returned for hops whose definition cannot perform the transition.
var errNoStep = errors.New("destination has no step")

// Engine realizes resolved plans against the live session.
type Engine struct {
	waiter    ports.Waiter
	recoverer ports.Recoverer
	base      ports.BaseState
	hooks     domain.Hooks
	logger    *slog.Logger
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithWaiter sets the Waiter used to verify arrival.
func WithWaiter(w ports.Waiter) EngineOption {
	return func(e *Engine) {
		if w != nil {
			e.waiter = w
		}
	}
}

// WithRecoverer sets the recovery action run after a failed step.
func WithRecoverer(r ports.Recoverer) EngineOption {
	return func(e *Engine) {
		e.recoverer = r
	}
}

// WithBaseState sets the collaborator that prepares the base state before root hops run.
func WithBaseState(b ports.BaseState) EngineOption {
	return func(e *Engine) {
		e.base = b
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.Hooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a new engine. Without options it polls with wait.New and has no
// recovery action, so a failed step is simply retried once.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		waiter: wait.New(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs nav.Plan and returns the arrival handle of its last hop.
//
// A step failure triggers one recovery and one more run of the whole plan; hops that are
// already displayed short-circuit on the second run. If the second run fails as well,
// the first failure is returned. Verification failures and context cancellation are
// returned as they are. A step error matching domain.ErrDestinationNotFound or
// domain.ErrNavigationCycle is a domain error: it is not retried and is returned
// unwrapped. Other step errors come back as *domain.HopError.
func (e *Engine) Execute(ctx context.Context, nav *domain.NavContext) (*domain.Arrival, error) {
	if nav == nil || nav.Plan.Len() == 0 {
		return nil, fmt.Errorf("cannot execute an empty plan")
	}

	nav.Attempt = 1
	arrival, err := e.run(ctx, nav)
	if err == nil {
		return arrival, nil
	}

	var first *stepFailure
	if !errors.As(err, &first) {
		return nil, err
	}
	if domain.IsResolutionError(first.err) {
		e.logger.DebugContext(ctx, "step raised a domain error",
			"destination", first.hop.Destination(),
			"entity", domain.Describe(first.hop.Entity),
			"err", first.err,
		)
		return nil, first.err
	}
	if !first.retryable(ctx) {
		return nil, first.hopError(nav.Attempt, nil)
	}

	if rerr := e.recover(ctx, nav, first); rerr != nil {
		return nil, first.hopError(nav.Attempt, rerr)
	}

	nav.Attempt = 2
	arrival, err = e.run(ctx, nav)
	if err == nil {
		e.logger.InfoContext(ctx, "navigation recovered",
			"destination", nav.Destination,
			"entity", domain.Describe(nav.Target),
			"cause", first.err,
		)
		return arrival, nil
	}

	e.logger.WarnContext(ctx, "navigation retry failed",
		"destination", nav.Destination,
		"entity", domain.Describe(nav.Target),
		"err", err,
	)
	return nil, first.hopError(1, nil)
}

// run executes the plan once, threading each arrival into the next hop.
// Hops up to the deepest one already displayed are satisfied and not executed.
func (e *Engine) run(ctx context.Context, nav *domain.NavContext) (*domain.Arrival, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := e.satisfiedFrom(ctx, nav)

	var prev *domain.Arrival
	last := len(nav.Plan.Hops) - 1
	for i, hop := range nav.Plan.Hops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hc := &domain.HopContext{
			Entity:       hop.Entity,
			Destination:  hop.Destination(),
			Prerequisite: prev,
			Terminal:     i == last,
			Nav:          nav,
		}
		if i < start {
			prev = e.passHop(ctx, i, hop, hc)
			continue
		}
		arrival, err := e.runHop(ctx, i, hop, hc, i == start)
		if err != nil {
			return nil, err
		}
		prev = arrival
	}
	return prev, nil
}

// satisfiedFrom returns the index of the deepest hop already displayed, or -1.
// A forced terminal hop never counts as displayed.
func (e *Engine) satisfiedFrom(ctx context.Context, nav *domain.NavContext) int {
	last := len(nav.Plan.Hops) - 1
	for i := last; i >= 0; i-- {
		hop := nav.Plan.Hops[i]
		if nav.Options.Forces(i == last) {
			continue
		}
		hc := &domain.HopContext{
			Entity:      hop.Entity,
			Destination: hop.Destination(),
			Terminal:    i == last,
			Nav:         nav,
		}
		if e.displayed(ctx, hop.Definition, hc) {
			return i
		}
	}
	return -1
}
