package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/normalisers/html"
	"github.com/custodia-labs/scribe/internal/normalisers/markdown"
	"github.com/custodia-labs/scribe/internal/normalisers/pdf"
	"github.com/custodia-labs/scribe/internal/normalisers/plaintext"
)

var _ driven.NormaliserRegistry = (*Registry)(nil)

// extensionTypes covers SRD formats whose extensions the platform MIME
// table may not know.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".rst":      "text/x-rst",
	".csv":      "text/csv",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".pdf":      "application/pdf",
}

// Registry dispatches documents to normalisers by MIME type.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default returns a registry with every built-in normaliser.
func Default() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(pdf.New())
	return r
}

// Register adds a normaliser. Normalisers are kept in descending priority.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// SupportedMIMETypes returns every concrete MIME type some normaliser
// handles, sorted. Wildcards such as "text/*" are omitted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if !seen[t] && !strings.HasSuffix(t, "/*") {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Normalise picks the highest-priority normaliser for the document's MIME
// type. When the type is empty, generic or unknown, the URI's extension is
// used instead. Nothing matching yields domain.ErrUnsupportedType.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrValidation)
	}

	mimeType := ResolveMIMEType(raw.MIMEType, raw.URI)
	n := r.lookup(mimeType)
	if n == nil {
		return nil, fmt.Errorf("%w: no extractor for %q (%s)", domain.ErrUnsupportedType, mimeType, filepath.Base(raw.URI))
	}

	resolved := *raw
	resolved.MIMEType = mimeType
	return n.Normalise(ctx, &resolved)
}

func (r *Registry) lookup(mimeType string) driven.Normaliser {
	if mimeType == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	wildcard := mimeType[:strings.IndexByte(mimeType+"/", '/')] + "/*"
	var fallback driven.Normaliser
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if t == mimeType {
				return n
			}
			if t == wildcard && fallback == nil {
				fallback = n
			}
		}
	}
	return fallback
}

// ResolveMIMEType strips parameters from contentType and, when it is empty
// or application/octet-stream, infers a type from the file extension.
func ResolveMIMEType(contentType, uri string) string {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			contentType = mt
		} else {
			contentType = strings.ToLower(strings.TrimSpace(contentType))
		}
	}
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	ext := strings.ToLower(filepath.Ext(uri))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
	}
	return contentType
}
