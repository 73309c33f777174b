// Package memory provides in-process implementations of the navgraph ports, for tests
// and for workers that share a console session within a single process.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/navgraph/pkg/ports"
)

// ErrLockLost is returned by a lease that expired.
var ErrLockLost = ports.ErrLockLost

type lease struct {
	token    uint64
	expires  time.Time
	released chan struct{}
}

// handle is the ports.Lease given to the holder of own.
type handle struct {
	l   *Locker
	key string
	own *lease
}

// Locker implements ports.DistributedLocker in memory.
// Leases expire after their TTL like their Redis counterpart. Safe for concurrent use.
type Locker struct {
	mu     sync.Mutex
	leases map[string]*lease
	next   uint64
	now    func() time.Time
}

var _ ports.DistributedLocker = (*Locker)(nil)

// NewLocker creates a new in-memory locker.
func NewLocker() *Locker {
	return &Locker{
		leases: make(map[string]*lease),
		now:    time.Now,
	}
}

// Lock blocks until key is free (or its lease expired) or ctx ends.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.Lease, error) {
	for {
		l.mu.Lock()
		cur, held := l.leases[key]
		if !held || !l.now().Before(cur.expires) {
			l.next++
			own := &lease{token: l.next, expires: l.now().Add(ttl), released: make(chan struct{})}
			l.leases[key] = own
			l.mu.Unlock()
			return &handle{l: l, key: key, own: own}, nil
		}
		released, wait := cur.released, cur.expires.Sub(l.now())
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-released:
			timer.Stop()
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// owned reports whether h still holds an unexpired lease. Caller holds l.mu.
func (h *handle) owned() bool {
	return h.l.leases[h.key] == h.own && h.l.now().Before(h.own.expires)
}

func (h *handle) Refresh(ctx context.Context, ttl time.Duration) error {
	h.l.mu.Lock()
	defer h.l.mu.Unlock()
	if !h.owned() {
		return ErrLockLost
	}
	h.own.expires = h.l.now().Add(ttl)
	return nil
}

func (h *handle) Unlock(ctx context.Context) error {
	h.l.mu.Lock()
	defer h.l.mu.Unlock()
	if h.l.leases[h.key] != h.own {
		return ErrLockLost
	}
	lost := !h.owned()
	delete(h.l.leases, h.key)
	close(h.own.released)
	if lost {
		return ErrLockLost
	}
	return nil
}

// Held returns the number of leases currently held, expired ones excluded.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ls := range l.leases {
		if l.now().Before(ls.expires) {
			n++
		}
	}
	return n
}
