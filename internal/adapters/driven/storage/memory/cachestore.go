package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// Ensure CacheStore implements the interface.
var _ driven.CacheStore = (*CacheStore)(nil)

// CacheStore is an in-memory implementation of driven.CacheStore.
type CacheStore struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

// NewCacheStore creates a new in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		entries: make(map[string]domain.CacheEntry),
	}
}

// GetEntry retrieves an entry, expired or not.
func (s *CacheStore) GetEntry(_ context.Context, key string) (*domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	entry.SourceChunkIDs = slices.Clone(entry.SourceChunkIDs)
	return &entry, nil
}

// PutEntry inserts or replaces an entry.
func (s *CacheStore) PutEntry(_ context.Context, entry *domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *entry
	stored.SourceChunkIDs = slices.Clone(entry.SourceChunkIDs)
	s.entries[entry.Key] = stored
	return nil
}

// Purge deletes entries expired at now.
func (s *CacheStore) Purge(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired included.
func (s *CacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
