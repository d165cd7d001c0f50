package tui

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("tui: query service is required")

// ErrMissingSRD is returned when no SRD id is given to chat about.
var ErrMissingSRD = errors.New("tui: srd id is required")
