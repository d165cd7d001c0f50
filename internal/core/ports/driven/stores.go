package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// SRDStore tracks index versions per SRD.
type SRDStore interface {
	// AllocateVersion reserves the next version number for srdID.
	// Versions are monotonic per SRD and never reused, even after a failed ingestion.
	AllocateVersion(ctx context.Context, srdID string) (int, error)

	// PublishVersion marks version as the current queryable version.
	// Publishing an older version than the current one is a no-op.
	PublishVersion(ctx context.Context, srdID string, version int) error

	// Get returns the SRD record. Returns domain.ErrNotFound if unknown.
	Get(ctx context.Context, srdID string) (*domain.SRD, error)

	// List returns all SRD records ordered by id.
	List(ctx context.Context) ([]domain.SRD, error)
}

// JobStore persists ingestion state machine records.
type JobStore interface {
	// SaveJob inserts or updates a job.
	SaveJob(ctx context.Context, job *domain.IngestionJob) error

	// GetJob returns a job by id. Returns domain.ErrNotFound if unknown.
	GetJob(ctx context.Context, id string) (*domain.IngestionJob, error)

	// ListJobs returns jobs for srdID, newest first.
	ListJobs(ctx context.Context, srdID string) ([]domain.IngestionJob, error)
}

// CacheStore persists retrieval cache entries.
// Expiry is the caller's concern: Get returns expired entries as stored.
type CacheStore interface {
	// GetEntry returns the entry for key. Returns domain.ErrNotFound if absent.
	GetEntry(ctx context.Context, key string) (*domain.CacheEntry, error)

	// PutEntry inserts or replaces the entry for entry.Key. Last write wins.
	PutEntry(ctx context.Context, entry *domain.CacheEntry) error

	// Purge deletes entries that expired before now and returns how many were removed.
	Purge(ctx context.Context, now time.Time) (int, error)
}
