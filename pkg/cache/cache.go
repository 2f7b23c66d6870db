// Package cache stores derived artifacts, such as rendered SVG, keyed by
// the content they were derived from.
//
// # Keys
//
// A key is a prefix followed by a blake3 hash of its parts, so a change to
// any input (the board digest, a render option) yields a new key and stale
// entries simply expire:
//
//	key := cache.Key("svg", doc.Digest, fit, background)
//
// # Implementations
//
//   - [Memory]: bounded in-process map, the server default
//   - [FileCache]: one file per entry, survives restarts
//   - [NullCache]: never stores anything
//
// [Scoped] namespaces another cache.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"time"

	"lukechampine.com/blake3"
)

// Cache is a byte cache with optional expiry. A ttl of zero means the
// entry does not expire.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key returns prefix + ":" + the hex blake3 hash of parts encoded as JSON.
func Key(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the hex blake3 hash of data.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Scoped prefixes every key with prefix before delegating to inner.
func Scoped(inner Cache, prefix string) Cache {
	return &scoped{inner: inner, prefix: prefix}
}

type scoped struct {
	inner  Cache
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close closes the inner cache.
func (s *scoped) Close() error { return s.inner.Close() }
