// Package domain defines the core business entities for Scribe.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: An uploaded rules document before extraction
//   - Document: Extracted text of an SRD
//   - Chunk: A bounded, order-preserving segment of a Document
//   - Manifest: The durable description of a persisted index version
//   - Query / Answer: The query pipeline's input and output
//   - CacheEntry: A previously computed Answer
//   - IngestionJob: The ingestion state machine record
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
