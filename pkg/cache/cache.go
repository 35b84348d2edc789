// Package cache stores intermediate pipeline results.
//
// The eigen-decomposition dominates the cost of a run, so its output is
// cached under a key derived from the graph's content and the solver
// options. Rendered PNGs are cached under a key derived from the embedding
// and the drawing options.
//
// Backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry below a directory (CLI default)
//   - [RedisCache]: shared cache for the job service
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer]. [ScopedKeyer] adds a namespace prefix so several
// tenants can share one backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Entry kinds, reported to cache hooks.
const (
	KindEmbedding = "embedding"
	KindArtifact  = "artifact"
)

// Default TTLs.
const (
	EmbeddingTTL = 7 * 24 * time.Hour
	ArtifactTTL  = 24 * time.Hour
)
