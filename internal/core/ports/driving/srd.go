package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// SRDService exposes read-only views of ingested SRDs and cache maintenance.
type SRDService interface {
	// List returns all known SRDs.
	List(ctx context.Context) ([]domain.SRD, error)

	// Manifest returns the manifest of the current version of srdID.
	Manifest(ctx context.Context, srdID string) (*domain.Manifest, error)

	// Jobs returns the ingestion history of srdID, newest first.
	Jobs(ctx context.Context, srdID string) ([]domain.IngestionJob, error)

	// PurgeCache deletes expired cache entries as of now.
	PurgeCache(ctx context.Context, now time.Time) (int, error)
}
