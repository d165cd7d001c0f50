package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
)

// Ensure SRDService implements the interface.
var _ driving.SRDService = (*SRDService)(nil)

// ManifestReader reads the manifest of one persisted version.
type ManifestReader interface {
	ReadManifest(ctx context.Context, srdID string, version int) (*domain.Manifest, error)
}

// SRDService provides read-only views of ingested SRDs.
type SRDService struct {
	srds      driven.SRDStore
	jobs      driven.JobStore
	manifests ManifestReader
	cache     *RetrievalCache
}

// NewSRDService creates a new SRD service. cache may be nil.
func NewSRDService(srds driven.SRDStore, jobs driven.JobStore, manifests ManifestReader, cache *RetrievalCache) *SRDService {
	return &SRDService{
		srds:      srds,
		jobs:      jobs,
		manifests: manifests,
		cache:     cache,
	}
}

// List returns all SRDs known to the metadata store.
func (s *SRDService) List(ctx context.Context) ([]domain.SRD, error) {
	return s.srds.List(ctx)
}

// Manifest returns the manifest of srdID's current version.
func (s *SRDService) Manifest(ctx context.Context, srdID string) (*domain.Manifest, error) {
	if !domain.ValidSRDID(srdID) {
		return nil, fmt.Errorf("%w: invalid srd_id %q", domain.ErrValidation, srdID)
	}
	srd, err := s.srds.Get(ctx, srdID)
	if err != nil {
		return nil, fmt.Errorf("srd %s: %w", srdID, err)
	}
	if srd.CurrentVersion == 0 {
		return nil, fmt.Errorf("%w: %s has no published version", domain.ErrNotFound, srdID)
	}
	return s.manifests.ReadManifest(ctx, srdID, srd.CurrentVersion)
}

// Jobs returns the ingestion history of srdID.
func (s *SRDService) Jobs(ctx context.Context, srdID string) ([]domain.IngestionJob, error) {
	if !domain.ValidSRDID(srdID) {
		return nil, fmt.Errorf("%w: invalid srd_id %q", domain.ErrValidation, srdID)
	}
	return s.jobs.ListJobs(ctx, srdID)
}

// PurgeCache deletes cache entries expired as of now.
func (s *SRDService) PurgeCache(ctx context.Context, now time.Time) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.Purge(ctx, now)
}
