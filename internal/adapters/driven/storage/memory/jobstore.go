package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is an in-memory implementation of driven.JobStore.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.IngestionJob
}

// NewJobStore creates a new in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]domain.IngestionJob),
	}
}

// SaveJob inserts or updates a job.
func (s *JobStore) SaveJob(_ context.Context, job *domain.IngestionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

// GetJob retrieves a job by id.
func (s *JobStore) GetJob(_ context.Context, id string) (*domain.IngestionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

// ListJobs returns jobs for srdID, newest first.
func (s *JobStore) ListJobs(_ context.Context, srdID string) ([]domain.IngestionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.IngestionJob
	for _, job := range s.jobs {
		if job.SRDID == srdID {
			result = append(result, job)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
