package cache

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvasen/sophamtning-ale/internal/store"
)

func TestPutMatchRoundtrip(t *testing.T) {
	ctx := context.Background()
	b := New(store.NewMemory(), "v1")

	stored := &Response{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   []byte(`{"RhServices":[]}`),
	}
	require.NoError(t, b.Put(ctx, "GET /api/schedule?address=Storgatan+1", stored))

	got, err := b.Match(ctx, "GET /api/schedule?address=Storgatan+1")
	require.NoError(t, err)
	assert.Equal(t, stored.Status, got.Status)
	assert.Equal(t, stored.Body, got.Body, "cached body must round-trip byte-for-byte")
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
}

func TestMatchMiss(t *testing.T) {
	b := New(store.NewMemory(), "v1")
	_, err := b.Match(context.Background(), "GET /nowhere")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestActivateRemovesOtherVersionsOnly(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()

	old := New(kv, "v1")
	require.NoError(t, old.Put(ctx, "GET /", &Response{Status: 200, Body: []byte("old")}))
	require.NoError(t, old.SetFlag(ctx, "2025-06-01-18", 0))

	current := New(kv, "v2")
	require.NoError(t, current.Put(ctx, "GET /", &Response{Status: 200, Body: []byte("new")}))

	// A key outside the bucket family must survive.
	require.NoError(t, kv.Set(ctx, "ale-waste-address", "Storgatan 1", 0))

	require.NoError(t, current.Activate(ctx))

	_, err := old.Match(ctx, "GET /")
	assert.ErrorIs(t, err, ErrNoMatch, "v1 entries are gone")

	got, err := current.Match(ctx, "GET /")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.Body, "v2 entries survive")

	val, err := kv.Get(ctx, "ale-waste-address")
	require.NoError(t, err)
	assert.Equal(t, "Storgatan 1", val)
}

func TestInstallPrimesStaticAssets(t *testing.T) {
	ctx := context.Background()
	b := New(store.NewMemory(), "v1")

	assets := map[string]Asset{
		"/":              {ContentType: "text/html; charset=utf-8", Body: []byte("<html></html>")},
		"/manifest.json": {ContentType: "application/manifest+json", Body: []byte("{}")},
	}
	require.NoError(t, b.Install(ctx, assets))

	got, err := b.Match(ctx, "GET /")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, "text/html; charset=utf-8", got.Header.Get("Content-Type"))

	got, err = b.Match(ctx, "GET /manifest.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), got.Body)

	// Install is idempotent.
	require.NoError(t, b.Install(ctx, assets))
}

func TestHasAny(t *testing.T) {
	ctx := context.Background()
	b := New(store.NewMemory(), "v1")

	ok, err := b.HasAny(ctx, "GET https://edp.example/GetWastePickupSchedule")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Put(ctx,
		"GET https://edp.example/GetWastePickupSchedule?address=Storgatan+1",
		&Response{Status: 200}))

	ok, err = b.HasAny(ctx, "GET https://edp.example/GetWastePickupSchedule")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFlags(t *testing.T) {
	ctx := context.Background()
	b := New(store.NewMemory(), "v1")

	has, err := b.HasFlag(ctx, "2025-06-02-18")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, b.SetFlag(ctx, "2025-06-02-18", 7*24*time.Hour))

	has, err = b.HasFlag(ctx, "2025-06-02-18")
	require.NoError(t, err)
	assert.True(t, has)

	// A different slot has its own flag.
	has, err = b.HasFlag(ctx, "2025-06-03-6")
	require.NoError(t, err)
	assert.False(t, has)
}
