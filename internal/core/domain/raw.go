package domain

// RawDocument represents the uploaded bytes of an SRD before text extraction.
// It is the upload event's payload.
type RawDocument struct {
	// SRDID is the client-supplied identifier. Empty means derive from URI.
	SRDID string

	// URI is the original location (file path, object key).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains uploader-specific key-value pairs.
	Metadata map[string]any
}
