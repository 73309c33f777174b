package ports

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLockerContract runs a suite of tests to verify that a DistributedLocker implementation
// adheres to the defined interface contract.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Lock and Unlock", func(t *testing.T) {
		lease, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err, "Lock should not return error")
		require.NotNil(t, lease)
		assert.NoError(t, lease.Unlock(ctx), "Unlock should not return error")

		// Lock must be available again.
		lease, err = locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		assert.NoError(t, lease.Unlock(ctx))
	})

	t.Run("Blocked Until Released", func(t *testing.T) {
		lease, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		var acquired atomic.Bool
		done := make(chan struct{})
		go func() {
			defer close(done)
			lease2, err := locker.Lock(ctx, key, 5*time.Second)
			if err == nil {
				acquired.Store(true)
				_ = lease2.Unlock(ctx)
			}
		}()

		time.Sleep(300 * time.Millisecond)
		assert.False(t, acquired.Load(), "second holder must wait while the lock is held")

		require.NoError(t, lease.Unlock(ctx))
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("second holder never acquired the lock")
		}
		assert.True(t, acquired.Load())
	})

	t.Run("Canceled Context", func(t *testing.T) {
		lease, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = lease.Unlock(ctx) }()

		cctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(cctx, key, 5*time.Second)
		assert.Error(t, err, "Lock on a held key must give up when the context ends")
	})

	t.Run("Refresh Keeps Lease", func(t *testing.T) {
		lease, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lease.Refresh(ctx, 5*time.Second))

		cctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(cctx, key, 5*time.Second)
		assert.Error(t, err, "a refreshed lease must still exclude others")

		require.NoError(t, lease.Unlock(ctx))
		assert.ErrorIs(t, lease.Refresh(ctx, 5*time.Second), ErrLockLost, "a released lease cannot be refreshed")
	})
}
