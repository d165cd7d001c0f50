// Package vectorindex builds, persists, reloads and searches per-SRD
// nearest-neighbour indexes over chunk embeddings.
//
// An Index is immutable once built. Search is an exact scan over every
// vector, so results are reproducible and recall is always 1. Persisted
// indexes are addressed by (srd_id, version): one binary blob and one JSON
// manifest per version, with the manifest written last so that its presence
// marks the version queryable.
//
// # Layout
//
//	<srd_id>/v<version>/index.bin
//	<srd_id>/v<version>/manifest.json
package vectorindex
