package driving

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// IngestService turns uploaded documents into persisted, queryable index versions.
type IngestService interface {
	// Ingest runs the ingestion state machine for one upload.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)
}
