// Package markdown extracts SRD text from Markdown uploads, keeping headings,
// tables and code blocks as text and dropping only the markup.
package markdown

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts Markdown to plain text. Chunking is handled by the
// post-processor pipeline.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrValidation)
	}

	rawContent := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")

	doc := domain.Document{
		SRDID:       raw.SRDID,
		URI:         raw.URI,
		Title:       extractMarkdownTitle(rawContent, raw.URI),
		Content:     stripMarkdown(rawContent),
		Metadata:    copyMetadata(raw.Metadata),
		ExtractedAt: time.Now(),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["mime_type"] = raw.MIMEType
	doc.Metadata["format"] = "markdown"

	return &driven.NormaliseResult{Document: doc}, nil
}

// extractMarkdownTitle returns the first H1 heading, else the filename.
func extractMarkdownTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.NewReplacer("_", " ", "-", " ").Replace(filename)
}

var (
	frontMatter  = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	codeFence    = regexp.MustCompile("(?m)^\\s*(```|~~~)[^\\n]*\\n?")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis     = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)|(\*|\b_)([^*_\n]+?)(\*|_\b)`)
	blockquote   = regexp.MustCompile(`(?m)^>\s?`)
	hr           = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	tableRule    = regexp.MustCompile(`(?m)^\|?(\s*:?-{3,}:?\s*\|)+\s*:?-*:?\s*\|?\s*$\n?`)
	listMarkers  = regexp.MustCompile(`(?m)^(\s*)[-*+]\s+`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes Markdown markup but keeps the words it decorates.
// Numbered list markers are kept since rules text often refers to steps.
func stripMarkdown(content string) string {
	content = frontMatter.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = tableRule.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2$5")
	content = blockquote.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "$1")
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
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
