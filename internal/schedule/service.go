package schedule

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alvasen/sophamtning-ale/internal/clock"
	"github.com/alvasen/sophamtning-ale/internal/store"
)

// Store keys, kept compatible with the original web app's local storage.
const (
	KeyAddress       = "ale-waste-address"
	KeyScheduleCache = "ale-waste-schedule-cache"
)

// Fetcher looks up the raw schedule for an address. Implemented by the EDP
// gateway client; faked in tests.
type Fetcher interface {
	GetSchedule(ctx context.Context, address string) (*Response, error)
}

// Cached is the persisted last-fetched schedule. It is overwritten wholesale
// on every successful fetch and only reused when its address matches the
// one being requested.
type Cached struct {
	Address   string   `json:"address"`
	Data      Response `json:"data"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
}

// View is the transformed schedule handed to the presentation layer.
type View struct {
	Address   string    `json:"address"`
	Items     []Item    `json:"items"`
	Groups    []Group   `json:"groups"`
	Stale     bool      `json:"stale"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Service fetches, transforms and caches schedules.
type Service struct {
	fetcher Fetcher
	kv      store.KV
	clock   clock.Clock
}

func NewService(fetcher Fetcher, kv store.KV, clk clock.Clock) *Service {
	return &Service{fetcher: fetcher, kv: kv, clock: clk}
}

// Raw proxies the upstream lookup without touching the schedule cache.
func (s *Service) Raw(ctx context.Context, address string) (*Response, error) {
	return s.fetcher.GetSchedule(ctx, address)
}

// Fetch looks up and transforms the schedule for an address.
//
// On upstream failure it falls back to the persisted schedule, but only when
// the cached entry was fetched for the same address; the returned view is
// then marked stale. If no usable cache exists the original fetch error is
// returned. Cache entries never expire by age; staleness is surfaced to the
// caller, not enforced here.
func (s *Service) Fetch(ctx context.Context, address string) (*View, error) {
	now := s.clock.Now()

	data, err := s.fetcher.GetSchedule(ctx, address)
	if err == nil {
		s.saveCache(ctx, address, data, now)
		items := Parse(data.RhServices, now)
		return &View{
			Address:   address,
			Items:     items,
			Groups:    GroupByDate(items),
			FetchedAt: now,
		}, nil
	}

	if cached, ok := s.loadCache(ctx); ok && cached.Address == address {
		items := Parse(cached.Data.RhServices, now)
		return &View{
			Address:   address,
			Items:     items,
			Groups:    GroupByDate(items),
			Stale:     true,
			FetchedAt: time.UnixMilli(cached.Timestamp),
		}, nil
	}

	return nil, err
}

func (s *Service) saveCache(ctx context.Context, address string, data *Response, now time.Time) {
	cached := Cached{
		Address:   address,
		Data:      *data,
		Timestamp: now.UnixMilli(),
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		slog.Warn("schedule: marshaling cache entry", "error", err)
		return
	}
	// A failed cache write must not fail the live fetch.
	if err := s.kv.Set(ctx, KeyScheduleCache, string(raw), 0); err != nil {
		slog.Warn("schedule: persisting cache entry", "error", err)
	}
}

func (s *Service) loadCache(ctx context.Context) (*Cached, bool) {
	raw, err := s.kv.Get(ctx, KeyScheduleCache)
	if err != nil {
		return nil, false
	}
	var cached Cached
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		slog.Warn("schedule: unreadable cache entry", "error", err)
		return nil, false
	}
	return &cached, true
}
