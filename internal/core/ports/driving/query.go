package driving

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// QueryService answers questions about an ingested SRD.
type QueryService interface {
	// Ask validates the request and runs the query pipeline.
	Ask(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)

	// Query runs the pipeline for an already validated query.
	Query(ctx context.Context, q domain.Query) (*domain.Answer, error)
}
