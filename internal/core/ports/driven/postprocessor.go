package driven

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// PostProcessor turns extracted text into chunks, or rewrites the chunks an
// earlier stage produced. A stage that creates chunks is called with nil.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline is the Chunked stage of ingestion.
type PostProcessorPipeline interface {
	// Process returns the chunks left after every stage has run. Offsets in
	// the result always refer to doc.Content.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
