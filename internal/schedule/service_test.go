package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvasen/sophamtning-ale/internal/store"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeFetcher struct {
	resp *Response
	err  error
	// calls records the addresses requested, in order.
	calls []string
}

func (f *fakeFetcher) GetSchedule(ctx context.Context, address string) (*Response, error) {
	f.calls = append(f.calls, address)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func testResponse() *Response {
	return &Response{RhServices: []RhService{
		{NextWastePickup: "2025-06-04", WasteType: "Restavfall", WastePickupFrequency: "Varje vecka"},
		{NextWastePickup: "2025-06-11", WasteType: "Matavfall", WastePickupFrequency: "Varannan vecka"},
	}}
}

func TestFetchSuccessCachesAndTransforms(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)
	fetcher := &fakeFetcher{resp: testResponse()}
	svc := NewService(fetcher, kv, fixedClock{now})

	view, err := svc.Fetch(ctx, "Storgatan 1")
	require.NoError(t, err)

	assert.False(t, view.Stale)
	assert.Len(t, view.Items, 2)
	assert.Len(t, view.Groups, 2)
	assert.Equal(t, now, view.FetchedAt)

	// The raw response is persisted together with the address.
	raw, err := kv.Get(ctx, KeyScheduleCache)
	require.NoError(t, err)
	assert.Contains(t, raw, `"Storgatan 1"`)
	assert.Contains(t, raw, "Restavfall")
}

func TestFetchFailureFallsBackToMatchingAddress(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	fetchedAt := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)

	// Prime the cache with a successful fetch for Storgatan 1.
	okFetcher := &fakeFetcher{resp: testResponse()}
	svc := NewService(okFetcher, kv, fixedClock{fetchedAt})
	_, err := svc.Fetch(ctx, "Storgatan 1")
	require.NoError(t, err)

	// Same address, network now failing: cached data plus stale flag.
	later := fetchedAt.Add(3 * time.Hour)
	downFetcher := &fakeFetcher{err: errors.New("connection refused")}
	svc = NewService(downFetcher, kv, fixedClock{later})

	view, err := svc.Fetch(ctx, "Storgatan 1")
	require.NoError(t, err)
	assert.True(t, view.Stale)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, fetchedAt.UnixMilli(), view.FetchedAt.UnixMilli(),
		"stale view reports the original capture time")
}

func TestFetchFailureDifferentAddressIsBlocking(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)

	okFetcher := &fakeFetcher{resp: testResponse()}
	svc := NewService(okFetcher, kv, fixedClock{now})
	_, err := svc.Fetch(ctx, "Storgatan 1")
	require.NoError(t, err)

	netErr := errors.New("connection refused")
	downFetcher := &fakeFetcher{err: netErr}
	svc = NewService(downFetcher, kv, fixedClock{now})

	view, err := svc.Fetch(ctx, "Kungsgatan 2")
	assert.Nil(t, view, "cache for another address must not be reused")
	assert.ErrorIs(t, err, netErr)
}

func TestFetchFailureEmptyCacheIsBlocking(t *testing.T) {
	ctx := context.Background()
	netErr := errors.New("timeout")
	svc := NewService(&fakeFetcher{err: netErr}, store.NewMemory(),
		fixedClock{time.Now()})

	view, err := svc.Fetch(ctx, "Storgatan 1")
	assert.Nil(t, view)
	assert.ErrorIs(t, err, netErr)
}

func TestFetchOverwritesCacheWholesale(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)

	svc := NewService(&fakeFetcher{resp: testResponse()}, kv, fixedClock{now})
	_, err := svc.Fetch(ctx, "Storgatan 1")
	require.NoError(t, err)

	second := &Response{RhServices: []RhService{
		{NextWastePickup: "2025-07-01", WasteType: "Tidningar"},
	}}
	svc = NewService(&fakeFetcher{resp: second}, kv, fixedClock{now})
	_, err = svc.Fetch(ctx, "Kungsgatan 2")
	require.NoError(t, err)

	raw, err := kv.Get(ctx, KeyScheduleCache)
	require.NoError(t, err)
	assert.Contains(t, raw, "Kungsgatan 2")
	assert.NotContains(t, raw, "Storgatan 1", "cache is replaced, not merged")
}
