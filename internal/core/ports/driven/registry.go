package driven

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// NormaliserRegistry picks a Normaliser for an upload by content type, then
// by the filename extension when the type is empty or generic.
type NormaliserRegistry interface {
	// Normalise fails with domain.ErrUnsupportedType when no normaliser
	// matches. ErrorKind reports it as "validation".
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
	Register(n Normaliser)
	SupportedMIMETypes() []string
}
