// Package ai builds the embedding and generative capabilities from
// configuration and wraps them with retries and rate limiting.
package ai

import (
	"fmt"
	"time"

	hashingembed "github.com/custodia-labs/scribe/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/scribe/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/scribe/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/scribe/internal/adapters/driven/llm/anthropic"
	echollm "github.com/custodia-labs/scribe/internal/adapters/driven/llm/echo"
	ollamallm "github.com/custodia-labs/scribe/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/scribe/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/scribe/internal/adapters/driven/resilient"
	"github.com/custodia-labs/scribe/internal/config"
	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/retry"
)

// rateLimitCooldown is how long callers pause after a provider answers 429.
const rateLimitCooldown = 2 * time.Second

// Services holds the wrapped capabilities.
type Services struct {
	Embedding *resilient.Embedder

	// Generation is nil when no generation provider is configured.
	Generation *resilient.Generator
}

// Close releases both capabilities.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.Generation != nil {
		s.Generation.Close()
	}
}

// GenerationService returns Generation as the port type, or a nil interface
// when generation is disabled.
func (s *Services) GenerationService() driven.GenerationService {
	if s.Generation == nil {
		return nil
	}
	return s.Generation
}

// New creates both capabilities from cfg. Each gets its own rate limiter
// since the providers may differ.
func New(cfg *config.Config) (*Services, error) {
	policy := RetryPolicy(cfg.Retry)
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	embed, err := CreateEmbeddingService(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	svcs := &Services{
		Embedding: resilient.NewEmbedder(embed, policy, newLimiter(cfg.RateLimit)),
	}

	gen, err := CreateGenerationService(cfg.Generation)
	if err != nil {
		svcs.Close()
		return nil, err
	}
	if gen != nil {
		svcs.Generation = resilient.NewGenerator(gen, policy, newLimiter(cfg.RateLimit))
	}
	return svcs, nil
}

// RetryPolicy converts the retry settings into a policy.
func RetryPolicy(cfg config.RetryConfig) retry.Policy {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.MaxAttempts
	policy.InitialDelay = cfg.InitialDelay.Std()
	policy.MaxDelay = cfg.MaxDelay.Std()
	policy.AttemptTimeout = cfg.AttemptTimeout.Std()
	return policy
}

func newLimiter(cfg config.RateLimitConfig) *resilient.RateLimiter {
	return resilient.NewRateLimiter(resilient.RateLimitConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
		BurstSize:         cfg.Burst,
		Cooldown:          rateLimitCooldown,
	})
}

// CreateEmbeddingService creates the unwrapped embedding service for cfg.
// The service's dimension must equal the configured one, because every
// index built with it records that dimension in its manifest.
func CreateEmbeddingService(cfg config.EmbeddingConfig) (driven.EmbeddingService, error) {
	var (
		svc driven.EmbeddingService
		err error
	)

	switch domain.AIProvider(cfg.Provider) {
	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimension,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimension,
		})

	case domain.AIProviderStub:
		svc, err = hashingembed.NewEmbeddingService(cfg.Dimension)

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama, openai or stub",
			domain.ErrConfiguration)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %q", domain.ErrConfiguration, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Dimension > 0 && svc.Dimensions() != cfg.Dimension {
		svc.Close()
		return nil, fmt.Errorf("%w: embedding model %s produces %d dimensions, configured %d",
			domain.ErrConfiguration, svc.ModelName(), svc.Dimensions(), cfg.Dimension)
	}
	return svc, nil
}

// CreateGenerationService creates the unwrapped generation service for cfg.
// Returns nil when no provider is configured.
func CreateGenerationService(cfg config.GenerationConfig) (driven.GenerationService, error) {
	switch domain.AIProvider(cfg.Provider) {
	case "":
		return nil, nil

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})

	case domain.AIProviderStub:
		return echollm.NewLLMService(), nil

	default:
		return nil, fmt.Errorf("%w: unsupported generation provider: %q", domain.ErrConfiguration, cfg.Provider)
	}
}
