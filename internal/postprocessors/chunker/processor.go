// Package chunker splits extracted SRD text into bounded, overlapping chunks.
//
// Chunks prefer to end on a paragraph break, then a line break, then a
// sentence end, then any whitespace, searching a tolerance window that ends
// at the length limit. With no boundary in the window the chunk is cut hard
// at the limit. Lengths and offsets are counted in runes.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping runes.
const DefaultChunkOverlap = 200

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor splits document content into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk length in runes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between consecutive chunks in runes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker processor. Invalid parameters fail with
// domain.ErrConfiguration rather than being corrected silently.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := ValidateParams(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrValidation)
	}
	return Split(doc.SRDID, doc.Content, p.chunkSize, p.overlap)
}

// ValidateParams checks chunking parameters.
func ValidateParams(maxLength, overlap int) error {
	if maxLength <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, maxLength)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrConfiguration, overlap)
	}
	if overlap >= maxLength {
		return fmt.Errorf("%w: chunk overlap %d must be less than chunk size %d",
			domain.ErrConfiguration, overlap, maxLength)
	}
	return nil
}

// Split chunks text deterministically. Consecutive chunks share exactly
// overlap runes, every chunk is at most maxLength runes, and the first and
// last chunks touch the start and end of text.
func Split(srdID, text string, maxLength, overlap int) ([]domain.Chunk, error) {
	if err := ValidateParams(maxLength, overlap); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no text to index", domain.ErrValidation)
	}

	runes := []rune(text)
	n := len(runes)

	chunks := make([]domain.Chunk, 0, n/(maxLength-overlap)+1)
	start := 0
	for {
		end := start + maxLength
		if end >= n {
			chunks = append(chunks, newChunk(srdID, len(chunks), runes, start, n))
			break
		}

		cut := boundary(runes, start, end, overlap, maxLength)
		chunks = append(chunks, newChunk(srdID, len(chunks), runes, start, cut))
		start = cut - overlap
	}

	return chunks, nil
}

func newChunk(srdID string, index int, runes []rune, start, end int) domain.Chunk {
	return domain.Chunk{
		SRDID: srdID,
		Index: index,
		Start: start,
		End:   end,
		Text:  string(runes[start:end]),
	}
}

// boundary returns the cut position for a chunk starting at start whose
// limit is end. The cut always lies in (start+overlap, end] so the next
// chunk makes progress.
func boundary(runes []rune, start, end, overlap, maxLength int) int {
	window := maxLength / 4
	if window < 1 {
		window = 1
	}
	lo := end - window
	if floor := start + overlap + 1; lo < floor {
		lo = floor
	}

	for _, match := range []func(i int) bool{
		func(i int) bool { return i-2 >= start && runes[i-2] == '\n' && runes[i-1] == '\n' },
		func(i int) bool { return runes[i-1] == '\n' },
		func(i int) bool { return i-2 >= start && isSentenceEnd(runes[i-2]) && unicode.IsSpace(runes[i-1]) },
		func(i int) bool { return unicode.IsSpace(runes[i-1]) },
	} {
		for i := end; i >= lo; i-- {
			if match(i) {
				return i
			}
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Reassemble joins chunks back into the source text by dropping the
// overlapping prefix of every chunk after the first.
func Reassemble(chunks []domain.Chunk) string {
	var b strings.Builder
	prevEnd := 0
	for i, c := range chunks {
		r := []rune(c.Text)
		if i == 0 {
			b.WriteString(c.Text)
		} else {
			b.WriteString(string(r[prevEnd-c.Start:]))
		}
		prevEnd = c.End
	}
	return b.String()
}
