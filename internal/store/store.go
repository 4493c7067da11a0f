// Package store provides the persistent key/value storage used for the
// last-selected address, the cached schedule and the offline cache bucket.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("store: key not found")

// KV is a string key/value store that survives process restarts.
// A ttl of zero means the entry never expires.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
