package history

import (
	"context"
	"sync"
)

// MemoryStore keeps run records in memory, for tests and for runs
// without a configured database.
type MemoryStore struct {
	mu      sync.Mutex
	records []RunRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// RecordRun appends the record.
func (s *MemoryStore) RecordRun(_ context.Context, rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far.
func (s *MemoryStore) Records() []RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RunRecord(nil), s.records...)
}
