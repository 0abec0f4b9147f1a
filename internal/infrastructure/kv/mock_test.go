package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_CreateRejectsConflict(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "k1", []byte("v1"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Create(ctx, "k1", []byte("v2"))
	require.NoError(t, err)
	assert.False(t, created, "Create must report conflict instead of overwriting")

	v, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v1", string(v))
}

func TestMockStore_PutOverwrites(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k1", []byte("v1")))
	require.NoError(t, store.Put(ctx, "k1", []byte("v2")))

	v, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", string(v))
}

func TestMockStore_DeleteReportsWhetherItExisted(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	existed, err := store.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, existed)

	require.NoError(t, store.Put(ctx, "k1", []byte("v1")))
	existed, err = store.Delete(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, existed)

	_, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMockStore_GetReturnsDefensiveCopy(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "k1", []byte("v1")))

	v, _, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	v[0] = 'X'

	v2, _, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(v2), "mutating a returned slice must not affect the stored value")
}
