// Package storage holds the persistence backends: key-value stores with
// expiry (SQLite and in-memory), the per-account workspace store built on
// top of them, the YAML workspace file used in offline mode, and the
// debounced saver that coalesces board edits into writes.
package storage

import (
	"context"
	"errors"
	"time"
)

// KeyValueStore is a string key-value backend with optional per-key expiry.
// A zero ttl means the key never expires. TTL returns zero for keys that are
// absent or have no expiry.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// ErrNotInteger is returned by Incr when the stored value is not a number.
var ErrNotInteger = errors.New("value is not an integer")
