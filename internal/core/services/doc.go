// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The ingestion service runs the upload state machine, the query service
// runs retrieval and optional generation behind the retrieval cache, and
// the SRD service exposes read-only views for the driving adapters.
package services
