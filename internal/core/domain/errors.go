package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// Driving adapters translate them to exit codes or tool errors with errors.Is.
var (
	// ErrValidation indicates malformed request input (empty question, bad srd_id, empty document).
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates an unknown srd_id or an srd_id with no persisted index version.
	ErrNotFound = errors.New("not found")

	// ErrEmbeddingService indicates the embedding capability failed permanently
	// or exhausted its retry budget.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrGenerationService indicates the generative capability failed after retries.
	// The query path reports it as a failed answer, never a crash.
	ErrGenerationService = errors.New("generation service error")

	// ErrIndexCorrupt indicates a persisted index that cannot be trusted:
	// missing manifest, dimension mismatch, checksum mismatch or truncated blob.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrEmptyIndex indicates a search against an index with zero chunks.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrConfiguration indicates invalid configuration (chunking parameters, metric, providers).
	ErrConfiguration = errors.New("configuration error")

	// Capability transport errors. Adapters return these so the retry layer
	// can tell transient failures from permanent ones.

	// ErrRateLimited indicates the provider API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient indicates a temporary provider failure (5xx, connection reset, timeout).
	ErrTransient = errors.New("transient failure")

	// ErrUnsupportedType indicates no extractor handles a content type.
	ErrUnsupportedType = errors.New("unsupported type")
)

// Derived errors keep their parent kind reachable through errors.Is.
var (
	// ErrMetricMismatch indicates a query metric that differs from the index build metric.
	ErrMetricMismatch = fmt.Errorf("%w: similarity metric mismatch", ErrConfiguration)

	// ErrDimensionMismatch indicates a persisted index built for another embedding dimension.
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrIndexCorrupt)

	// ErrManifestMissing indicates an index version with no manifest.
	ErrManifestMissing = fmt.Errorf("%w: manifest missing", ErrIndexCorrupt)
)

// IsRetryable reports whether err is a transient capability failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

// ErrorKind names the class of err for adapters that report it outside Go:
// "validation", "not_found", "configuration", "embedding_service",
// "generation_service", "index_corrupt", "empty_index", or "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnsupportedType):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrEmbeddingService):
		return "embedding_service"
	case errors.Is(err, ErrGenerationService):
		return "generation_service"
	case errors.Is(err, ErrIndexCorrupt):
		return "index_corrupt"
	case errors.Is(err, ErrEmptyIndex):
		return "empty_index"
	default:
		return "internal"
	}
}
