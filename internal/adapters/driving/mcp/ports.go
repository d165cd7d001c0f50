package mcp

import (
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Ingest accepts new SRD uploads. Optional.
	Ingest driving.IngestService

	// SRD lists SRDs and their manifests. Optional.
	SRD driving.SRDService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
