// Package cache implements the versioned offline cache bucket: stored HTTP
// responses keyed by request, primed static assets, and the reminder dedup
// flags. Bumping the version invalidates every previously cached entry on
// the next activate.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alvasen/sophamtning-ale/internal/store"
)

// Family is the shared bucket name prefix; Activate enumerates it to find
// buckets left behind by earlier versions.
const Family = "ale-waste"

// flagPrefix namespaces the notification dedup flags inside the bucket.
const flagPrefix = "/notify-flag/"

// ErrNoMatch is returned by Match when nothing is stored for the request.
var ErrNoMatch = errors.New("cache: no stored response matches")

// Response is a serialized HTTP response.
type Response struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// HTTP rebuilds a live *http.Response served from the cache.
func (r *Response) HTTP(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode:    r.Status,
		Status:        fmt.Sprintf("%d %s", r.Status, http.StatusText(r.Status)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        r.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

// Asset is a static file to prime into the bucket at install time.
type Asset struct {
	ContentType string
	Body        []byte
}

// Bucket is one version of the offline cache on top of the KV store.
type Bucket struct {
	kv   store.KV
	name string // e.g. "ale-waste-v1"
}

// New creates the bucket for the given version suffix.
func New(kv store.KV, version string) *Bucket {
	return &Bucket{kv: kv, name: Family + "-" + version}
}

// Name returns the full versioned bucket name.
func (b *Bucket) Name() string { return b.name }

func (b *Bucket) entryKey(requestKey string) string {
	return b.name + ":" + requestKey
}

// Put stores a serialized response under the request key, overwriting any
// previous entry. Entries never expire by age.
func (b *Bucket) Put(ctx context.Context, requestKey string, resp *Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("cache: encoding response for %q: %w", requestKey, err)
	}
	return b.kv.Set(ctx, b.entryKey(requestKey), string(raw), 0)
}

// Match returns the stored response for the request key, or ErrNoMatch.
func (b *Bucket) Match(ctx context.Context, requestKey string) (*Response, error) {
	raw, err := b.kv.Get(ctx, b.entryKey(requestKey))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("cache: decoding entry for %q: %w", requestKey, err)
	}
	return &resp, nil
}

// HasAny reports whether any stored response key starts with the prefix.
// The reminder check uses this to require a previously cached schedule.
func (b *Bucket) HasAny(ctx context.Context, requestKeyPrefix string) (bool, error) {
	keys, err := b.kv.Keys(ctx, b.entryKey(requestKeyPrefix))
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

// Install primes the bucket with the fixed static asset list. It overwrites
// unconditionally, never waits on anything and is safe to repeat.
func (b *Bucket) Install(ctx context.Context, assets map[string]Asset) error {
	for path, asset := range assets {
		resp := &Response{
			Status: http.StatusOK,
			Header: http.Header{"Content-Type": []string{asset.ContentType}},
			Body:   asset.Body,
		}
		if err := b.Put(ctx, http.MethodGet+" "+path, resp); err != nil {
			return fmt.Errorf("cache: priming %q: %w", path, err)
		}
	}
	slog.Info("cache: static assets primed", "bucket", b.name, "count", len(assets))
	return nil
}

// Activate deletes every entry belonging to a bucket version other than this
// one. The current bucket's entries are untouched.
func (b *Bucket) Activate(ctx context.Context) error {
	keys, err := b.kv.Keys(ctx, Family+"-")
	if err != nil {
		return fmt.Errorf("cache: enumerating buckets: %w", err)
	}

	current := b.name + ":"
	removed := 0
	for _, key := range keys {
		if strings.HasPrefix(key, current) {
			continue
		}
		if err := b.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("cache: deleting stale entry %q: %w", key, err)
		}
		removed++
	}
	if removed > 0 {
		slog.Info("cache: old bucket entries removed", "bucket", b.name, "removed", removed)
	}
	return nil
}

// SetFlag records a notification dedup flag. The TTL bounds the growth of
// the flag set; two slots per day makes a week of retention plenty.
func (b *Bucket) SetFlag(ctx context.Context, flag string, ttl time.Duration) error {
	return b.kv.Set(ctx, b.entryKey(flagPrefix+flag), "1", ttl)
}

// HasFlag reports whether the dedup flag is present.
func (b *Bucket) HasFlag(ctx context.Context, flag string) (bool, error) {
	_, err := b.kv.Get(ctx, b.entryKey(flagPrefix+flag))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
