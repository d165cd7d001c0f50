package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Document is the extracted text of an SRD.
// It is the canonical representation after normalisation.
type Document struct {
	// SRDID identifies the rules document.
	SRDID string

	// URI is the original location (file path, object key).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full extracted text before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs set by the extractor.
	Metadata map[string]any

	// ExtractedAt is when the text was extracted.
	ExtractedAt time.Time
}

// Chunk is a bounded, order-preserving segment of a Document's text.
// Start and End are rune offsets into Document.Content.
type Chunk struct {
	// SRDID links to the owning document.
	SRDID string `json:"srd_id"`

	// Index is the sequence position, starting at zero.
	Index int `json:"index"`

	// Start is the rune offset of the first rune.
	Start int `json:"start"`

	// End is the rune offset one past the last rune.
	End int `json:"end"`

	// Text is the chunk content.
	Text string `json:"text"`
}

// Len returns the chunk length in runes.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// MaxSRDIDLength bounds srd_id so it stays a safe storage key.
const MaxSRDIDLength = 128

// ValidSRDID reports whether id is usable as a storage key:
// lower-case letters, digits, '-' and '_' only, non-empty, bounded length.
func ValidSRDID(id string) bool {
	if id == "" || len(id) > MaxSRDIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// DeriveSRDID builds an srd_id from a file name or object key.
// The extension is dropped, the rest lower-cased, and any run of
// characters outside [a-z0-9_-] becomes a single '-'.
func DeriveSRDID(uri string) string {
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ToLower(name)

	var b strings.Builder
	dash := false
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
			dash = r == '-'
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}

	id := strings.Trim(b.String(), "-")
	if len(id) > MaxSRDIDLength {
		id = strings.TrimRight(id[:MaxSRDIDLength], "-")
	}
	return id
}
