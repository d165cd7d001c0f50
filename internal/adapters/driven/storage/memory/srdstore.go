package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// Ensure SRDStore implements the interface.
var _ driven.SRDStore = (*SRDStore)(nil)

// SRDStore is an in-memory implementation of driven.SRDStore.
type SRDStore struct {
	mu   sync.Mutex
	srds map[string]domain.SRD
}

// NewSRDStore creates a new in-memory SRD store.
func NewSRDStore() *SRDStore {
	return &SRDStore{
		srds: make(map[string]domain.SRD),
	}
}

// AllocateVersion reserves the next version for srdID.
func (s *SRDStore) AllocateVersion(_ context.Context, srdID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	srd := s.srds[srdID]
	srd.ID = srdID
	srd.LatestAllocated++
	srd.UpdatedAt = time.Now()
	s.srds[srdID] = srd
	return srd.LatestAllocated, nil
}

// PublishVersion raises the current version of srdID.
func (s *SRDStore) PublishVersion(_ context.Context, srdID string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	srd := s.srds[srdID]
	srd.ID = srdID
	srd.CurrentVersion = max(srd.CurrentVersion, version)
	srd.LatestAllocated = max(srd.LatestAllocated, version)
	srd.UpdatedAt = time.Now()
	s.srds[srdID] = srd
	return nil
}

// Get retrieves an SRD record.
func (s *SRDStore) Get(_ context.Context, srdID string) (*domain.SRD, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	srd, ok := s.srds[srdID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &srd, nil
}

// List returns all SRD records ordered by id.
func (s *SRDStore) List(_ context.Context) ([]domain.SRD, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.SRD, 0, len(s.srds))
	for _, srd := range s.srds {
		result = append(result, srd)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
