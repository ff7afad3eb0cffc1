// Package history records glitch runs.
//
// Every pipeline execution produces a [Run]: which recipe and seed were
// used, what went in and what came out. A [Store] keeps them for the
// `trip history` command and the API's /v1/runs endpoint.
//
// Backends:
//   - [NullStore]: discard (default)
//   - [MemoryStore]: bounded in-process ring, used by the API server
//   - [MongoStore]: persistent, shared between instances
package history

import (
	"context"
	"time"
)

// Run describes one pipeline execution.
type Run struct {
	ID        string        `json:"id"`
	Recipe    string        `json:"recipe"`
	Steps     int           `json:"steps"`
	Seed      uint64        `json:"seed"`
	InputName string        `json:"input_name,omitempty"`
	InputHash string        `json:"input_hash"`
	Format    string        `json:"format"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Bytes     int           `json:"bytes"`
	CacheHit  bool          `json:"cache_hit"`
	Source    string        `json:"source,omitempty"` // "cli" or "api"
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// OK reports whether the run succeeded.
func (r Run) OK() bool { return r.Error == "" }

// Store persists runs.
type Store interface {
	// Record saves a run.
	Record(ctx context.Context, run Run) error

	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)

	// Close releases backend resources.
	Close() error
}

// DefaultLimit is the number of runs listed when no limit is given.
const DefaultLimit = 20

// NullStore discards runs.
type NullStore struct{}

func (NullStore) Record(context.Context, Run) error          { return nil }
func (NullStore) Recent(context.Context, int) ([]Run, error) { return nil, nil }
func (NullStore) Close() error                               { return nil }

var _ Store = NullStore{}
