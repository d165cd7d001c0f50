package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.Contains(t, mimeTypes, "text/plain")
	assert.Contains(t, mimeTypes, "text/*")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		SRDID:    "basic-rules",
		URI:      "/uploads/basic_rules-v5.txt",
		MIMEType: "text/plain",
		Content:  []byte("Rule A. Rule B. Rule C."),
		Metadata: map[string]any{"uploader": "cli"},
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "basic-rules", doc.SRDID)
	assert.Equal(t, raw.URI, doc.URI)
	assert.Equal(t, "basic rules v5", doc.Title)
	assert.Equal(t, "Rule A. Rule B. Rule C.", doc.Content)
	assert.Equal(t, "text/plain", doc.Metadata["mime_type"])
	assert.Equal(t, "cli", doc.Metadata["uploader"])
	assert.False(t, doc.ExtractedAt.IsZero())

	// The raw metadata map must not be mutated.
	assert.NotContains(t, raw.Metadata, "mime_type")
}

func TestNormalise_TitleFromMetadata(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "x.txt",
		Content:  []byte("text"),
		Metadata: map[string]any{"title": "Player's Handbook SRD"},
	}
	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Player's Handbook SRD", result.Document.Title)
}

func TestNormalise_CleansText(t *testing.T) {
	raw := &domain.RawDocument{URI: "a.txt", Content: []byte("\ufeffLine one\r\nLine two\rLine three\n\n  ")}
	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Line one\nLine two\nLine three", result.Document.Content)
}

func TestNormalise_Errors(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = New().Normalise(context.Background(), &domain.RawDocument{URI: "bin.txt", Content: []byte{0xff, 0xfe, 0xfd}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNormalise_EmptyContentIsNotAnExtractorError(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "empty.txt"})
	require.NoError(t, err)
	assert.Empty(t, result.Document.Content)
}
