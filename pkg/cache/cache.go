// Package cache provides byte-level caching for packed layouts and rendered
// artifacts.
//
// Packing a large manifest is cheap compared to rendering it, but both are
// deterministic in their inputs, so the CLI and API key results by a hash of
// the manifest plus the options that influence the output.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for multiple API instances
//   - [Nop]: disables caching
//
// # Keys
//
// [Keyer] builds keys; [DefaultKeyer] hashes key options with SHA-256 and
// [WithPrefix] namespaces another keyer.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached values.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
	TraceTTL    = 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Nop returns a Cache that stores nothing and always misses.
func Nop() Cache { return nopCache{} }

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (nopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nopCache) Delete(context.Context, string) error                     { return nil }
func (nopCache) Close() error                                             { return nil }
