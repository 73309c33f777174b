package ports

import (
	"context"
	"errors"
	"time"
)

// ErrLockLost is returned by a Lease when the lock expired, possibly to be taken by
// someone else. Adapters wrap it with the key.
var ErrLockLost = errors.New("distributed lock no longer held")

// Lease is a held distributed lock.
type Lease interface {
	// Refresh pushes the expiry back to ttl from now.
	// Returns ErrLockLost if the lease already expired.
	Refresh(ctx context.Context, ttl time.Duration) error

	// Unlock releases the lock. Returns ErrLockLost if the lease expired before.
	Unlock(ctx context.Context) error
}

// DistributedLocker defines the interface for distributed concurrency control.
// It lets several test workers share one console session without interleaving navigations.
type DistributedLocker interface {
	// Lock attempts to acquire a distributed lock for the given key (e.g., session ID).
	// It blocks until the lock is acquired or the context is canceled.
	// The TTL bounds how long a crashed holder can keep the lock; live holders keep
	// it by calling Refresh.
	// Returns a Lease that MUST be unlocked to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}
