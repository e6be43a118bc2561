package placecache

import (
	"strings"
	"sync"
	"time"

	"github.com/openbites/bitefinder/internal/domain/places"
)

type memoryEntry struct {
	payload   []byte
	writtenAt time.Time
}

// MemoryStore is the per-process local cache tier. Freshness is judged by the
// caller from the write timestamp, so entries here never expire on their own.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs an empty local tier.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements places.LocalStore.
func (s *MemoryStore) Get(key string) ([]byte, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e.payload, e.writtenAt, ok
}

// Set stores the payload with a fresh write timestamp.
func (s *MemoryStore) Set(key string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{payload: payload, writtenAt: s.now()}
}

// Delete removes the named entries.
func (s *MemoryStore) Delete(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
}

// DeletePrefix removes every entry whose key starts with prefix.
func (s *MemoryStore) DeletePrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
}

// Clear drops every entry.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
}

var _ places.LocalStore = (*MemoryStore)(nil)
