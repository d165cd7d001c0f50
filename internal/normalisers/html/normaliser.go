package html

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts an HTML document to text. Chunking is handled by the
// post-processor pipeline.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrValidation)
	}

	root, err := html.Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", domain.ErrValidation, err)
	}

	doc := domain.Document{
		SRDID:       raw.SRDID,
		URI:         raw.URI,
		Title:       extractHTMLTitle(root, raw.URI),
		Content:     extractText(root),
		Metadata:    copyMetadata(raw.Metadata),
		ExtractedAt: time.Now(),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["mime_type"] = raw.MIMEType
	doc.Metadata["format"] = "html"

	return &driven.NormaliseResult{Document: doc}, nil
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Nav:      true,
	atom.Iframe:   true,
}

// block elements start and end on their own line.
var block = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Tr: true, atom.Table: true, atom.Blockquote: true, atom.Pre: true,
	atom.Header: true, atom.Footer: true, atom.Main: true, atom.Aside: true,
	atom.Figure: true, atom.Figcaption: true,
}

// paragraph elements are separated by a blank line.
var paragraph = map[atom.Atom]bool{
	atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Blockquote: true, atom.Pre: true, atom.Section: true, atom.Article: true,
}

var (
	multiSpaces   = regexp.MustCompile(`[ \t\p{Zs}]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

func extractText(root *html.Node) string {
	var sb strings.Builder
	walk(&sb, root, false)

	lines := strings.Split(sb.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpaces.ReplaceAllString(line, " "))
	}
	out := strings.Join(lines, "\n")
	out = multiNewlines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func walk(sb *strings.Builder, n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		text := n.Data
		if !pre {
			text = strings.ReplaceAll(text, "\n", " ")
		}
		sb.WriteString(text)
		return
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
		switch n.DataAtom {
		case atom.Br:
			sb.WriteString("\n")
			return
		case atom.Hr:
			ensureBreak(sb, 2)
			return
		case atom.Pre:
			pre = true
		}
	case html.CommentNode:
		return
	}

	if n.Type == html.ElementNode && block[n.DataAtom] {
		ensureBreak(sb, breakFor(n.DataAtom))
	}
	first := true
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if n.DataAtom == atom.Tr && c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			if !first {
				sb.WriteString(" | ")
			}
			first = false
		}
		walk(sb, c, pre)
	}
	if n.Type == html.ElementNode && block[n.DataAtom] {
		ensureBreak(sb, breakFor(n.DataAtom))
	}
}

func breakFor(a atom.Atom) int {
	if paragraph[a] {
		return 2
	}
	return 1
}

// ensureBreak makes the output end in at least n newlines, ignoring
// trailing blanks. Nothing is written at the start of the document.
func ensureBreak(sb *strings.Builder, n int) {
	trimmed := strings.TrimRight(sb.String(), " \t")
	if trimmed == "" {
		return
	}
	have := len(trimmed) - len(strings.TrimRight(trimmed, "\n"))
	if have < n {
		sb.WriteString(strings.Repeat("\n", n-have))
	}
}

// extractHTMLTitle prefers <title>, then the first <h1>, then the filename.
func extractHTMLTitle(root *html.Node, uri string) string {
	for _, a := range []atom.Atom{atom.Title, atom.H1} {
		if t := strings.Join(strings.Fields(textOf(find(root, a))), " "); t != "" {
			return t
		}
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.NewReplacer("_", " ", "-", " ").Replace(filename)
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
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
