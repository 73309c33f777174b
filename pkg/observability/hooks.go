package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/navgraph/pkg/domain"
)

// Combine returns hooks that call every non-nil hook of each set, in order.
func Combine(sets ...domain.Hooks) domain.Hooks {
	var out domain.Hooks
	for _, h := range sets {
		out.OnNavigateStart = chain(out.OnNavigateStart, h.OnNavigateStart)
		out.OnNavigateEnd = chain(out.OnNavigateEnd, h.OnNavigateEnd)
		out.OnHop = chain(out.OnHop, h.OnHop)
		out.OnRecover = chain(out.OnRecover, h.OnRecover)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// Logging returns hooks that log every lifecycle event to logger.
func Logging(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnNavigateStart: func(ctx context.Context, e *domain.NavigationEvent) {
			logger.InfoContext(ctx, "navigate_start",
				"session_id", e.SessionID,
				"entity", e.Entity,
				"destination", e.Destination,
			)
		},
		OnNavigateEnd: func(ctx context.Context, e *domain.NavigationEvent) {
			attrs := []any{
				"session_id", e.SessionID,
				"entity", e.Entity,
				"destination", e.Destination,
				"phase", e.Phase,
				"hops", e.Hops,
				"attempts", e.Attempts,
				"duration", e.Duration,
			}
			if e.Err != nil {
				logger.ErrorContext(ctx, "navigate_end", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "navigate_end", attrs...)
		},
		OnHop: func(ctx context.Context, e *domain.HopEvent) {
			logger.DebugContext(ctx, "hop",
				"entity", e.Entity,
				"destination", e.Destination,
				"outcome", e.Outcome,
				"attempt", e.Attempt,
			)
		},
		OnRecover: func(ctx context.Context, e *domain.RecoveryEvent) {
			logger.WarnContext(ctx, "recover",
				"entity", e.Entity,
				"destination", e.Destination,
				"cause", e.Cause,
				"err", e.Err,
			)
		},
	}
}
