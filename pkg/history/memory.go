package history

import (
	"context"
	"sync"
)

// MemoryStore keeps the most recent runs in memory.
type MemoryStore struct {
	mu   sync.Mutex
	runs []Run // oldest first
	max  int
}

// NewMemoryStore creates a store holding at most capacity runs.
// A non-positive capacity means 1000.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryStore{max: capacity}
}

// Record appends run, evicting the oldest when full.
func (s *MemoryStore) Record(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == s.max {
		copy(s.runs, s.runs[1:])
		s.runs = s.runs[:len(s.runs)-1]
	}
	s.runs = append(s.runs, run)
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = DefaultLimit
	}
	n := min(limit, len(s.runs))
	out := make([]Run, n)
	for i := range n {
		out[i] = s.runs[len(s.runs)-1-i]
	}
	return out, nil
}

// Close does nothing.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
