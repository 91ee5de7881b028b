// Package cache stores rendered artifacts so repeated runs with the same
// document and output options skip rendering.
//
// # Backends
//
//   - [FileCache]: one file per entry, sharded by key hash, written atomically.
//   - [RedisCache]: a shared Redis instance, for the HTTP API.
//   - [NullCache]: caching disabled.
//
// Use [Open] to pick a backend from a location string.
//
// # Keys
//
// A [Keyer] turns a document hash and render options into a cache key.
// [ScopedKeyer] prefixes another keyer's keys so tenants can share a backend.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value and true on a hit, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLArtifact is how long rendered artifacts are kept.
const TTLArtifact = 7 * 24 * time.Hour

// Open returns a cache for the given location:
//
//   - "" or "none": a NullCache
//   - "redis://..." or "rediss://...": a RedisCache
//   - anything else: a FileCache rooted at that directory
func Open(ctx context.Context, location string) (Cache, error) {
	switch {
	case location == "" || location == "none":
		return NewNullCache(), nil
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		c, err := NewRedisCache(ctx, location)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		c, err := NewFileCache(location)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
