package driven

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// GenerationService produces a natural-language answer from a prompt that
// already carries the question and the retrieved context.
//
// Implementations include:
//   - OpenAI (chat completions)
//   - Anthropic (messages)
//   - Ollama (local models)
//   - A deterministic echo generator for offline use and tests
type GenerationService interface {
	// Generate produces text for the request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerationRequest is one generation call.
type GenerationRequest struct {
	// System is the instruction prompt, sent as the system message where the provider supports one.
	System string

	// Prompt is the user turn: question plus context.
	Prompt string

	// Config carries sanitized sampling parameters. Nil fields mean provider defaults.
	Config domain.GenerationConfig
}
