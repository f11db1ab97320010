package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries is the default item budget for a MemoryStore.
const DefaultMaxEntries = 100

type memoryEntry struct {
	data           []byte
	createdAt      time.Time
	lastAccessedAt time.Time
}

// MemoryStore is the in-memory Store implementation, bounded by item count.
// On overflow the entries with the oldest creation time are evicted first.
// Nothing survives a process restart.
type MemoryStore struct {
	maxEntries int

	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

// NewMemoryStore creates a MemoryStore holding at most maxEntries items.
// A non-positive maxEntries selects DefaultMaxEntries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		maxEntries: maxEntries,
		entries:    make(map[string]*memoryEntry),
	}
}

// Load implements Store. Takes the write lock because it updates the
// entry's last-accessed timestamp.
func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}
	entry.lastAccessedAt = time.Now()

	CacheHits.WithLabelValues("memory").Inc()
	data := make([]byte, len(entry.data))
	copy(data, entry.data)
	return data, nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, key string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.entries[key] = &memoryEntry{
		data:           stored,
		createdAt:      now,
		lastAccessedAt: now,
	}

	s.evictLocked()
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*memoryEntry)
	return nil
}

// Exists implements Store.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[key]
	return ok, nil
}

// Metadata implements Store.
func (s *MemoryStore) Metadata(ctx context.Context, key string) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &Metadata{
		SizeBytes:      int64(len(entry.data)),
		CreatedAt:      entry.createdAt,
		LastAccessedAt: entry.lastAccessedAt,
	}, nil
}

// Len returns the current entry count.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// evictLocked removes the oldest-created entries until the count is within
// budget. Caller must hold the write lock.
func (s *MemoryStore) evictLocked() {
	for len(s.entries) > s.maxEntries {
		var (
			oldestKey string
			oldestAt  time.Time
		)
		first := true
		for key, entry := range s.entries {
			if first || entry.createdAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.createdAt
				first = false
			}
		}
		delete(s.entries, oldestKey)
		CacheEvictions.WithLabelValues("memory").Inc()
	}
}
