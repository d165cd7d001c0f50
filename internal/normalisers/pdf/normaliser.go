// Package pdf extracts SRD text from PDF uploads with poppler's pdftotext.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

const toolName = "pdftotext"

// ErrPDFToolNotFound is returned when pdftotext is not on PATH.
var ErrPDFToolNotFound = fmt.Errorf("%w: pdftotext not found in PATH", domain.ErrUnsupportedType)

// maxTitleLength rejects first lines that are clearly body text.
const maxTitleLength = 200

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner    CommandRunner
	checkTool bool
}

// New creates a PDF normaliser that shells out to pdftotext.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}, checkTool: true}
}

// NewWithRunner creates a PDF normaliser with a custom runner. The PATH
// lookup is skipped; the runner stands in for pdftotext.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{runner: runner}
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions explains how to get pdftotext.
func InstallInstructions() string {
	return `PDF ingestion requires pdftotext (part of poppler).

  macOS:          brew install poppler
  Debian/Ubuntu:  sudo apt install poppler-utils
  Fedora:         sudo dnf install poppler-utils`
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

func (n *Normaliser) Priority() int {
	return 50
}

// Normalise writes the upload to a temporary file and runs
// `pdftotext -layout -enc UTF-8 <file> -`. Page breaks become blank lines.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrValidation)
	}
	if n.checkTool {
		if err := CheckAvailable(); err != nil {
			return nil, err
		}
	}

	tmp, err := os.CreateTemp("", "scribe-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, werr := tmp.Write(raw.Content)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	out, err := n.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("%w: pdftotext failed on %s: %v", domain.ErrValidation, filepath.Base(raw.URI), err)
	}

	content := cleanText(string(out))

	doc := domain.Document{
		SRDID:       raw.SRDID,
		URI:         raw.URI,
		Title:       extractTitle(content, raw.URI),
		Content:     content,
		Metadata:    copyMetadata(raw.Metadata),
		ExtractedAt: time.Now(),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["mime_type"] = raw.MIMEType
	doc.Metadata["format"] = "pdf"
	doc.Metadata["pages"] = strings.Count(string(out), "\f")

	return &driven.NormaliseResult{Document: doc}, nil
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractTitle uses the first short non-empty line, else the filename.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= maxTitleLength {
			return line
		}
	}

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
