package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onionkeep/onionkeep/internal/common"
)

func TestMemoryStorage_GetSetDelete(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	_, err := s.Get(ctx, "device:missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, s.Set(ctx, "device:a", []byte("one")))
	require.NoError(t, s.Set(ctx, "device:a", []byte("two")))

	got, err := s.Get(ctx, "device:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	require.NoError(t, s.Delete(ctx, "device:a"))
	_, err = s.Get(ctx, "device:a")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// deleting an absent key is not an error
	assert.NoError(t, s.Delete(ctx, "device:a"))
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	original := []byte("value")
	require.NoError(t, s.Set(ctx, "k", original))

	original[0] = 'X'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	got[0] = 'Y'
	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), again)
}

func TestMemoryStorage_ListByPrefix(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "secret:d1:r1", []byte("1")))
	require.NoError(t, s.Set(ctx, "secret:d1:r2", []byte("2")))
	require.NoError(t, s.Set(ctx, "secret:d2:r1", []byte("3")))
	require.NoError(t, s.Set(ctx, "device:d1", []byte("4")))

	entries, err := s.List(ctx, "secret:d1:")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "secret:d1:r1", entries[0].Key)
	assert.Equal(t, "secret:d1:r2", entries[1].Key)

	empty, err := s.List(ctx, "secret:d3:")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
