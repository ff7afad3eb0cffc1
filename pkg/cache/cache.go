// Package cache stores encoded glitch artifacts.
//
// A [Cache] is a byte store keyed by strings. Backends:
//   - [NullCache]: caching disabled
//   - [FileCache]: local directory, entries zstd-compressed (CLI default)
//   - [RedisCache]: shared store for API deployments
//
// Keys come from a [Keyer]. Since the transforms are deterministic, an
// artifact is fully identified by the input bytes, the recipe, the seed and
// the output encoding; [DefaultKeyer.ArtifactKey] hashes exactly those.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long artifacts stay cached when no TTL is configured.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts identifies how an artifact was produced.
type ArtifactKeyOpts struct {
	Recipe  string `json:"recipe"` // recipe fingerprint, see recipe steps
	Seed    uint64 `json:"seed"`
	Format  string `json:"format"`
	Quality int    `json:"quality,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	ArtifactKey(inputHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey hashes the input hash together with opts.
func (DefaultKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", inputHash, opts)
}
