// Package memory implements an in-memory storage.Provider for tests.
package memory

import (
	"context"
	"sync"
)

// Store keeps artifacts in a map.
type Store struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

// Save records a copy of data under name.
func (s *Store) Save(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = append([]byte(nil), data...)
	return nil
}

// Get returns the stored bytes and whether the name exists.
func (s *Store) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[name]
	return data, ok
}
