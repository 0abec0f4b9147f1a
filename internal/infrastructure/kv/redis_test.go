package kv_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/asgdns/reconciler/internal/infrastructure/kv"
)

func newTestRedisStore(t *testing.T) *kv.RedisStore {
	t.Helper()
	srv, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return kv.NewRedisStore(client)
}

func TestRedisStore_CreateGetPutDelete(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "sg-1", []byte("v1"))
	require.NoError(t, err)
	require.True(t, created)

	again, err := store.Create(ctx, "sg-1", []byte("v2"))
	require.NoError(t, err)
	require.False(t, again, "create must not overwrite an existing key")

	value, found, err := store.Get(ctx, "sg-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v1", string(value))

	require.NoError(t, store.Put(ctx, "sg-1", []byte("v1-updated")))
	value, found, err = store.Get(ctx, "sg-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v1-updated", string(value))

	deleted, err := store.Delete(ctx, "sg-1")
	require.NoError(t, err)
	require.True(t, deleted)

	_, found, err = store.Get(ctx, "sg-1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRedisStore_GetMissingKeyReturnsNotFound(t *testing.T) {
	store := newTestRedisStore(t)

	_, found, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRedisStore_DeleteMissingKeyReturnsFalse(t *testing.T) {
	store := newTestRedisStore(t)

	deleted, err := store.Delete(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, deleted)
}
