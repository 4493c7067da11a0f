package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "address", "Storgatan 1", 0))
	val, err := m.Get(ctx, "address")
	require.NoError(t, err)
	assert.Equal(t, "Storgatan 1", val)

	require.NoError(t, m.Delete(ctx, "address"))
	_, err = m.Get(ctx, "address")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryKeysByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "bucket-v1:a", "1", 0))
	require.NoError(t, m.Set(ctx, "bucket-v1:b", "2", 0))
	require.NoError(t, m.Set(ctx, "bucket-v2:a", "3", 0))

	keys, err := m.Keys(ctx, "bucket-v1:")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	keys, err = m.Keys(ctx, "bucket-")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	m.SetNowFunc(func() time.Time { return now })

	require.NoError(t, m.Set(ctx, "flag", "1", time.Hour))

	val, err := m.Get(ctx, "flag")
	require.NoError(t, err)
	assert.Equal(t, "1", val)

	now = now.Add(2 * time.Hour)
	_, err = m.Get(ctx, "flag")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := m.Keys(ctx, "flag")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
