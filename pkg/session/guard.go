package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/navgraph/internal/logging"
	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/aretw0/navgraph/pkg/ports"
)

// DefaultTTL bounds how long a crashed holder keeps a distributed lock.
// A live holder refreshes its lease every third of the TTL.
const DefaultTTL = 30 * time.Second

// ErrLeaseLost is returned by Do when the distributed lock expired while fn ran, so
// another worker may have driven the session at the same time.
var ErrLeaseLost = errors.New("session lease lost")

// lockEntry holds the session semaphore and the reference count.
type lockEntry struct {
	sem  chan struct{}
	refs int
}

// heldKey is the context key for the set of sessions held by the current call chain.
type heldKey struct{}

// Guard serializes access to sessions.
// It uses reference counting to garbage collect unused locks.
type Guard struct {
	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker ports.DistributedLocker // Optional distributed locker
	ttl    time.Duration
	wait   time.Duration
	logger *slog.Logger
}

// Option configures the Guard.
type Option func(*Guard)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(g *Guard) {
		g.locker = locker
	}
}

// WithTTL sets the TTL of distributed locks.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithWaitTimeout makes Do give up with domain.ErrSessionBusy when the session stays
// locked for longer than d. Zero waits until the context ends.
func WithWaitTimeout(d time.Duration) Option {
	return func(g *Guard) {
		g.wait = d
	}
}

// WithLogger configures a logger for the Guard.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGuard creates a new session Guard.
func NewGuard(opts ...Option) *Guard {
	g := &Guard{
		locks:  make(map[string]*lockEntry),
		ttl:    DefaultTTL,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST call release(sessionID) when done with the entry.
func (g *Guard) acquire(sessionID string) *lockEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.locks[sessionID]
	if !exists {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		g.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (g *Guard) release(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(g.locks, sessionID)
	}
}

// Held reports whether ctx already holds the lock of sessionID.
func Held(ctx context.Context, sessionID string) bool {
	held, _ := ctx.Value(heldKey{}).(map[string]bool)
	return held[sessionID]
}

func withHeld(ctx context.Context, sessionID string) context.Context {
	prev, _ := ctx.Value(heldKey{}).(map[string]bool)
	next := make(map[string]bool, len(prev)+1)
	for k := range prev {
		next[k] = true
	}
	next[sessionID] = true
	return context.WithValue(ctx, heldKey{}, next)
}

// Do executes fn while holding the lock for the session.
// Calls made with a context derived from fn's context re-enter without blocking.
// With a distributed locker the lease is refreshed while fn runs; if it is lost, fn's
// context is canceled and Do returns ErrLeaseLost even when fn succeeded.
func (g *Guard) Do(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if Held(ctx, sessionID) {
		return fn(ctx)
	}

	entry := g.acquire(sessionID)
	defer g.release(sessionID)

	if err := g.lock(ctx, sessionID, entry); err != nil {
		return err
	}
	defer func() { <-entry.sem }()

	if g.locker == nil {
		return fn(withHeld(ctx, sessionID))
	}

	lease, err := g.locker.Lock(ctx, sessionID, g.ttl)
	if err != nil {
		return fmt.Errorf("%w: distributed lock for %q: %w", domain.ErrSessionBusy, sessionID, err)
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := g.keepAlive(runCtx, sessionID, lease, cancel)

	fnErr := fn(withHeld(runCtx, sessionID))
	stop()

	unlockErr := lease.Unlock(context.WithoutCancel(ctx))
	if cause := context.Cause(runCtx); errors.Is(cause, ErrLeaseLost) {
		return errors.Join(cause, fnErr)
	}
	if errors.Is(unlockErr, ports.ErrLockLost) {
		return errors.Join(fmt.Errorf("%w: %q expired before release: %w", ErrLeaseLost, sessionID, unlockErr), fnErr)
	}
	if unlockErr != nil {
		g.logger.Warn("Failed to release distributed lock (will expire via TTL)",
			"session_id", sessionID,
			"err", unlockErr,
		)
	}
	return fnErr
}

// keepAlive refreshes lease every ttl/3 until stop is called. When the lease is gone,
// or no refresh succeeded for a whole TTL, it cancels ctx with ErrLeaseLost.
func (g *Guard) keepAlive(ctx context.Context, sessionID string, lease ports.Lease, cancel context.CancelCauseFunc) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(max(g.ttl/3, time.Millisecond))
		defer ticker.Stop()
		renewed := time.Now()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			err := lease.Refresh(ctx, g.ttl)
			if ctx.Err() != nil {
				return
			}
			switch {
			case err == nil:
				renewed = time.Now()
				continue
			case errors.Is(err, ports.ErrLockLost):
			case time.Since(renewed) < g.ttl:
				g.logger.Warn("Failed to refresh distributed lock; retrying",
					"session_id", sessionID,
					"err", err,
				)
				continue
			}
			g.logger.Error("Distributed lock lost during navigation",
				"session_id", sessionID,
				"err", err,
			)
			cancel(fmt.Errorf("%w: %q: %w", ErrLeaseLost, sessionID, err))
			return
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func (g *Guard) lock(ctx context.Context, sessionID string, entry *lockEntry) error {
	var timeout <-chan time.Time
	if g.wait > 0 {
		timer := time.NewTimer(g.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case entry.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout:
		g.logger.Debug("session still locked", "session_id", sessionID, "waited", g.wait)
		return fmt.Errorf("%w: %q locked for more than %s", domain.ErrSessionBusy, sessionID, g.wait)
	}
}

// Active lists the sessions that are locked or waited on, sorted.
func (g *Guard) Active() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.locks))
	for id := range g.locks {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
