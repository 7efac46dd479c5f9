package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss reports that a key holds no live entry. A miss is the normal
// read-through signal, not a failure: every other error from a Store means
// the cache tier itself misbehaved.
var ErrCacheMiss = errors.New("cache: key not found")

// Store is the raw cache tier: opaque bytes under string keys with a TTL.
// Implementations apply the deployment-wide key prefix themselves, so keys
// passed in are the logical keys of the cache grammar.
type Store interface {
	// Get returns the bytes stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPrefix removes every key sharing the given logical prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Ping checks that the cache tier is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}
