// Package cache stores compiled layouts between passes.
//
// # Backends
//
//   - [NullCache]: stores nothing, used with --no-cache and in tests
//   - [FileCache]: one JSON file per key, used by the CLI
//   - [RedisCache]: shared cache for multiple server instances
//
// # Keys
//
// Keys are built by a [Keyer] so every entry point computes the same key for
// the same input. A layout key hashes the history content together with the
// options that change the result (tip, seed and colors):
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.LayoutKey(cache.Hash(historyJSON), cache.LayoutKeyOpts{Tip: "main", Seed: 42})
//
// [ScopedKeyer] prefixes every key, giving tenants or callers separate
// namespaces in a shared backend.
package cache

import (
	"context"
	"time"
)

// TTLLayout is the lifetime of a cached layout. Layouts are pure functions
// of their key, so they only expire to bound storage.
const TTLLayout = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiration.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies the layout of a history with the given content hash.
	LayoutKey(historyHash string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts are the pass options that change a layout.
type LayoutKeyOpts struct {
	Tip         string   `json:"tip"`
	Seed        uint64   `json:"seed"`
	TrunkColor  string   `json:"trunk_color"`
	LanePalette []string `json:"lane_palette,omitempty"`
}

// DefaultKeyer builds keys of the form kind:sha256(parts).
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(historyHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", historyHash, opts)
}

var _ Keyer = DefaultKeyer{}
