// Package echo is an offline generation service. It answers with the first
// retrieved chunk found in the prompt, which keeps generative mode usable
// without a model and gives tests a deterministic generator.
package echo

import (
	"context"
	"strings"

	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

var _ driven.GenerationService = (*LLMService)(nil)

const ModelName = "echo"

// LLMService is stateless and safe for concurrent use.
type LLMService struct{}

func NewLLMService() *LLMService {
	return &LLMService{}
}

// Generate returns the text of the first "[chunk N]" block in the prompt,
// or the whole prompt when none is present. Stop sequences and max tokens
// (counted as whitespace-separated words) are honoured.
func (s *LLMService) Generate(ctx context.Context, req driven.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out := firstChunk(req.Prompt)
	for _, stop := range req.Config.StopSequences {
		if i := strings.Index(out, stop); i >= 0 {
			out = out[:i]
		}
	}
	if req.Config.MaxTokens != nil {
		words := strings.Fields(out)
		if len(words) > *req.Config.MaxTokens {
			out = strings.Join(words[:*req.Config.MaxTokens], " ")
		}
	}
	return strings.TrimSpace(out), nil
}

func firstChunk(prompt string) string {
	i := strings.Index(prompt, "[chunk ")
	if i < 0 {
		return prompt
	}
	rest := prompt[i:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return ""
	}
	if end := strings.Index(rest, "\n\n---\n\n"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func (s *LLMService) ModelName() string {
	return ModelName
}

func (s *LLMService) Ping(context.Context) error {
	return nil
}

func (s *LLMService) Close() error {
	return nil
}
