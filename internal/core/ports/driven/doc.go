// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Normaliser / NormaliserRegistry: Text extraction from uploaded bytes
//   - PostProcessor / PostProcessorPipeline: Chunking
//   - EmbeddingService: The embedding capability
//   - GenerationService: The generative capability
//   - BlobStore: Durable object storage for index blobs and manifests
//   - SRDStore: Version allocation and publication
//   - JobStore: Ingestion state machine records
//   - CacheStore: Retrieval cache persistence
//   - PromptStore: Generative prompt templates
//   - ConfigStore: Flat key/value configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
