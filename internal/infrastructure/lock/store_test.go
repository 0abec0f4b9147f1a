package lock

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	srv, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewStore(client, &LockConfig{TTL: 30 * time.Second, ValuePrefix: "test"}, slog.Default())
	return store, srv
}

func TestStore_AcquireThenReleaseFreesTheKey(t *testing.T) {
	store, srv := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Acquire(ctx, "lock:sg-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, srv.Exists("lock:sg-1"))

	require.NoError(t, store.Release(ctx, "lock:sg-1"))
	require.False(t, srv.Exists("lock:sg-1"))
}

func TestStore_AcquireFailsWhenAlreadyHeld(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Acquire(ctx, "lock:sg-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Acquire(ctx, "lock:sg-1")
	require.NoError(t, err)
	require.False(t, ok, "a second acquire for the same key must fail while it is held")
}

func TestStore_ReleaseDoesNotDeleteAKeyHeldByAnotherProcess(t *testing.T) {
	store, srv := newTestStore(t)
	ctx := context.Background()

	// Simulate another process holding the key with a different value.
	require.NoError(t, srv.Set("lock:sg-1", "someone-elses-value"))

	require.NoError(t, store.Release(ctx, "lock:sg-1"))
	require.True(t, srv.Exists("lock:sg-1"), "release must not delete a key this process never acquired")
}

func TestStore_ReleaseIsIdempotentForAnUntrackedKey(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Release(context.Background(), "lock:never-acquired"))
}
