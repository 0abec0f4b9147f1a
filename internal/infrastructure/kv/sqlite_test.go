package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_CreateGetPutDelete(t *testing.T) {
	store, err := NewSQLiteStore("", "asg_dns_configurations")
	require.NoError(t, err)
	defer store.Close()

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

func TestSQLiteStore_GetMissingKeyReturnsNotFound(t *testing.T) {
	store, err := NewSQLiteStore("", "asg_dns_configurations")
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, found)
}
