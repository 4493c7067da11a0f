// Package search coordinates interactive address lookups: debouncing,
// minimum query length and discarding of superseded results.
package search

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alvasen/sophamtning-ale/internal/edp"
)

const (
	// MinQueryLength is the shortest query forwarded upstream. Anything
	// shorter resolves to an empty result without a network call.
	MinQueryLength = 2

	// DefaultDebounce is the pause after the last keystroke before a
	// query is actually sent.
	DefaultDebounce = 300 * time.Millisecond
)

// ErrSuperseded marks a result that arrived after a newer query was
// issued on the same coordinator. Callers drop it.
var ErrSuperseded = errors.New("search: query superseded")

var parenthetical = regexp.MustCompile(`\s*\(.*\)`)

// DisplayName strips the trailing parenthetical disambiguator from an
// address for presentation. Lookups always use the full string.
func DisplayName(address string) string {
	return parenthetical.ReplaceAllString(address, "")
}

// Searcher is the upstream side of the coordinator.
type Searcher interface {
	SearchAddress(ctx context.Context, text string) (*edp.SearchResponse, error)
}

// Coordinator serializes the lookups of one interactive session. Each
// Query debounces, then checks it is still the newest before and after
// the upstream call, so a slow early response can never shadow a later
// one.
type Coordinator struct {
	searcher Searcher
	debounce time.Duration
	seq      atomic.Uint64
}

func NewCoordinator(searcher Searcher, debounce time.Duration) *Coordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Coordinator{searcher: searcher, debounce: debounce}
}

// Query performs one debounced lookup. Queries shorter than
// MinQueryLength return an empty result immediately. A query that has
// been superseded by a newer Query on the same coordinator returns
// ErrSuperseded, either during the debounce pause or once its upstream
// response lands late.
func (c *Coordinator) Query(ctx context.Context, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < MinQueryLength {
		return nil, nil
	}

	seq := c.seq.Add(1)

	timer := time.NewTimer(c.debounce)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	if c.seq.Load() != seq {
		return nil, ErrSuperseded
	}

	resp, err := c.searcher.SearchAddress(ctx, text)
	if c.seq.Load() != seq {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	if !resp.Succeeded {
		return nil, nil
	}
	return resp.Buildings, nil
}
