// Package plaintext extracts SRD text from plain text uploads. It is the
// lowest-priority normaliser and accepts any text/* content.
package plaintext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
// "text/*" matches any text subtype the registry has no better match for.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/x-rst",
		"text/*",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5
}

// Normalise decodes the upload as UTF-8 text. A leading byte order mark is
// dropped and line endings are normalised to "\n" so chunk offsets are
// stable across platforms. Content that is not valid UTF-8 is rejected.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrValidation)
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrValidation, filepath.Base(raw.URI))
	}

	content := CleanText(string(raw.Content))

	doc := domain.Document{
		SRDID:       raw.SRDID,
		URI:         raw.URI,
		Title:       titleFromMetadataOrURI(raw),
		Content:     content,
		Metadata:    copyMetadata(raw.Metadata),
		ExtractedAt: time.Now(),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["mime_type"] = raw.MIMEType

	return &driven.NormaliseResult{Document: doc}, nil
}

// CleanText strips a UTF-8 BOM, converts CRLF and CR to LF and trims
// trailing whitespace from the document.
func CleanText(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimRight(s, " \t\n")
}

func titleFromMetadataOrURI(raw *domain.RawDocument) string {
	if title, ok := raw.Metadata["title"].(string); ok && title != "" {
		return title
	}
	return titleFromURI(raw.URI)
}

// titleFromURI turns "/srd/basic_rules-v5.txt" into "basic rules v5".
func titleFromURI(uri string) string {
	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.NewReplacer("_", " ", "-", " ").Replace(filename)
}

func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
