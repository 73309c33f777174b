package navgraph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/navgraph/internal/logging"
	"github.com/aretw0/navgraph/internal/resolver"
	"github.com/aretw0/navgraph/internal/runtime"
	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/aretw0/navgraph/pkg/ports"
	"github.com/aretw0/navgraph/pkg/registry"
	"github.com/aretw0/navgraph/pkg/session"
)

// DefaultSessionID is used when no session is configured.
const DefaultSessionID = "default"

// Navigator is the entry point for navigating one live session.
// It wraps the resolver and the executor and serializes calls on its session.
type Navigator struct {
	registry *registry.Registry
	resolver *resolver.Resolver
	runtime  *runtime.Engine
	guard    *session.Guard

	waiter    ports.Waiter
	recoverer ports.Recoverer
	base      ports.BaseState
	locker    ports.DistributedLocker
	hooks     domain.Hooks
	logger    *slog.Logger
	defaults  domain.NavOptions
	sessionID string
}

// Option defines a functional option for configuring the Navigator.
type Option func(*Navigator)

// WithWaiter sets the Waiter used to verify arrival (default: wait.New()).
func WithWaiter(w ports.Waiter) Option {
	return func(n *Navigator) {
		n.waiter = w
	}
}

// WithRecoverer sets the recovery action run once after a step fails.
func WithRecoverer(r ports.Recoverer) Option {
	return func(n *Navigator) {
		n.recoverer = r
	}
}

// WithBaseState sets the collaborator called before a root hop executes.
func WithBaseState(b ports.BaseState) Option {
	return func(n *Navigator) {
		n.base = b
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.Hooks) Option {
	return func(n *Navigator) {
		n.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// WithSession names the live session driven by the Navigator.
func WithSession(id string) Option {
	return func(n *Navigator) {
		n.sessionID = id
	}
}

// WithLocker enables distributed locking of the session, for workers sharing one console.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(n *Navigator) {
		n.locker = locker
	}
}

// WithGuard shares a session guard between navigators. It takes precedence over WithLocker.
func WithGuard(g *session.Guard) Option {
	return func(n *Navigator) {
		n.guard = g
	}
}

// WithDefaults layers opts over the engine defaults for every call.
func WithDefaults(opts domain.NavOptions) Option {
	return func(n *Navigator) {
		n.defaults = n.defaults.Merge(opts)
	}
}

// New creates a Navigator over reg. The registry is frozen: population must be complete.
func New(reg *registry.Registry, opts ...Option) (*Navigator, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}

	n := &Navigator{
		registry:  reg,
		defaults:  domain.DefaultNavOptions(),
		sessionID: DefaultSessionID,
	}
	for _, opt := range opts {
		opt(n)
	}

	// Ensure logger is initialized (so we don't pass nil to the runtime).
	if n.logger == nil {
		n.logger = logging.NewNop()
	}
	n.logger = n.logger.With("session_id", n.sessionID)

	if n.guard == nil {
		gopts := []session.Option{session.WithLogger(n.logger)}
		if n.locker != nil {
			gopts = append(gopts, session.WithLocker(n.locker))
		}
		n.guard = session.NewGuard(gopts...)
	}

	reg.Freeze()
	n.resolver = resolver.New(reg)
	n.runtime = runtime.NewEngine(
		runtime.WithWaiter(n.waiter),
		runtime.WithRecoverer(n.recoverer),
		runtime.WithBaseState(n.base),
		runtime.WithLifecycleHooks(n.hooks),
		runtime.WithLogger(n.logger),
	)
	return n, nil
}

// Registry returns the registry the Navigator resolves against.
func (n *Navigator) Registry() *registry.Registry {
	return n.registry
}

// SessionID returns the session driven by the Navigator.
func (n *Navigator) SessionID() string {
	return n.sessionID
}

// Plan resolves the hops NavigateTo would consider, without touching the session.
func (n *Navigator) Plan(entity domain.Entity, destination string) (*domain.Plan, error) {
	if entity == nil {
		return nil, fmt.Errorf("entity is required")
	}
	return n.resolver.Resolve(entity, destination)
}

// NavigateTo brings the session to destination for entity and returns the arrival handle.
//
// Errors match domain.ErrDestinationNotFound, domain.ErrNavigationCycle or
// domain.ErrNavigationFailed. A step error matching one of the first two is a domain
// error and is returned exactly as the step raised it. Other step errors come wrapped
// in a *domain.HopError naming the hop; the original stays reachable with errors.As.
// With a distributed locker, losing the session lease mid-navigation returns
// session.ErrLeaseLost.
func (n *Navigator) NavigateTo(ctx context.Context, entity domain.Entity, destination string, opts ...NavOption) (*domain.Arrival, error) {
	if entity == nil {
		return nil, fmt.Errorf("entity is required")
	}
	options, err := n.options(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ev := &domain.NavigationEvent{
		SessionID:   n.sessionID,
		EntityType:  entity.EntityType(),
		Entity:      domain.Describe(entity),
		Destination: destination,
		Phase:       domain.PhaseResolving,
	}
	if n.hooks.OnNavigateStart != nil {
		ev.Timestamp = start
		n.hooks.OnNavigateStart(ctx, ev)
	}

	var arrival *domain.Arrival
	err = n.guard.Do(ctx, n.sessionID, func(ctx context.Context) error {
		plan, err := n.resolver.Resolve(entity, destination)
		if err != nil {
			return err
		}
		ev.Hops = plan.Len()

		nav := &domain.NavContext{
			Target:      entity,
			Destination: destination,
			Options:     options,
			Plan:        plan,
			SessionID:   n.sessionID,
		}
		n.logger.DebugContext(ctx, "navigation plan",
			"phase", domain.PhaseResolving,
			"plan", plan.String(),
		)
		arrival, err = n.runtime.Execute(ctx, nav)
		ev.Attempts = nav.Attempt
		return err
	})

	ev.Duration = time.Since(start)
	ev.Phase = domain.PhaseDone
	if err != nil {
		ev.Phase = domain.PhaseFailed
		ev.Err = err
		n.logFailure(ctx, ev)
	} else {
		n.logger.InfoContext(ctx, "navigation done",
			"entity", ev.Entity,
			"destination", destination,
			"hops", ev.Hops,
			"attempts", ev.Attempts,
			"elapsed_ms", ev.Duration.Milliseconds(),
		)
	}
	if n.hooks.OnNavigateEnd != nil {
		ev.Timestamp = time.Now()
		n.hooks.OnNavigateEnd(ctx, ev)
	}
	return arrival, err
}

func (n *Navigator) logFailure(ctx context.Context, ev *domain.NavigationEvent) {
	attrs := []any{
		"entity", ev.Entity,
		"destination", ev.Destination,
		"err", ev.Err,
	}
	// Resolution failures are configuration problems, not flaky UI.
	if domain.IsResolutionError(ev.Err) {
		n.logger.ErrorContext(ctx, "navigation unresolvable", attrs...)
		return
	}
	n.logger.WarnContext(ctx, "navigation failed", append(attrs, "attempts", ev.Attempts)...)
}
