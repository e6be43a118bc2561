package placecache

import (
	"context"
	"sync"

	"github.com/openbites/bitefinder/internal/domain/places"
)

// MemoryPersistentStore stands in for the shared tier in dev and tests when
// Valkey is disabled. Same semantics, process-local scope.
type MemoryPersistentStore struct {
	mu      sync.RWMutex
	entries map[string]places.PersistentEntry
}

// NewMemoryPersistentStore constructs an empty store.
func NewMemoryPersistentStore() *MemoryPersistentStore {
	return &MemoryPersistentStore{entries: make(map[string]places.PersistentEntry)}
}

// Get implements places.PersistentStore.
func (s *MemoryPersistentStore) Get(_ context.Context, key string) (places.PersistentEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

// Set implements places.PersistentStore.
func (s *MemoryPersistentStore) Set(_ context.Context, key string, entry places.PersistentEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

var _ places.PersistentStore = (*MemoryPersistentStore)(nil)
