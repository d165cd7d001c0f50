// Package tui provides the interactive chat interface for Scribe.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
)

// Ports aggregates the driving ports the chat needs.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
