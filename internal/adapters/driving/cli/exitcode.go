package cli

import (
	"github.com/custodia-labs/scribe/internal/core/domain"
)

// Exit codes by error kind.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitValidation    = 2
	ExitNotFound      = 3
	ExitConfiguration = 4
	ExitCapability    = 5
	ExitIndex         = 6
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch domain.ErrorKind(err) {
	case "":
		return ExitOK
	case "validation":
		return ExitValidation
	case "not_found":
		return ExitNotFound
	case "configuration":
		return ExitConfiguration
	case "embedding_service", "generation_service":
		return ExitCapability
	case "index_corrupt", "empty_index":
		return ExitIndex
	default:
		return ExitFailure
	}
}
