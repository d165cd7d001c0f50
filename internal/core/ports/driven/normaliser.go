package driven

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// Normaliser is the Extracted stage for one family of upload formats.
type Normaliser interface {
	// SupportedMIMETypes lists the content types handled. A trailing "/*"
	// matches a whole family, e.g. "text/*".
	SupportedMIMETypes() []string

	// Priority breaks ties between normalisers claiming the same type.
	// Fallbacks stay below 10.
	Priority() int

	// Normalise extracts plain text. Malformed input wraps domain.ErrValidation.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult carries the extracted document into chunking.
type NormaliseResult struct {
	Document domain.Document
}
