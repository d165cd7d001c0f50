package resilient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/retry"
)

// Ensure Generator implements the interface.
var _ driven.GenerationService = (*Generator)(nil)

// Generator adds retries and rate limiting to a GenerationService.
type Generator struct {
	inner   driven.GenerationService
	policy  retry.Policy
	limiter *RateLimiter
	stats   counters
}

// NewGenerator wraps inner. A nil limiter disables rate limiting.
func NewGenerator(inner driven.GenerationService, policy retry.Policy, limiter *RateLimiter) *Generator {
	return &Generator{inner: inner, policy: policy, limiter: limiter}
}

// Generate produces text. Blank output counts as a permanent failure.
func (g *Generator) Generate(ctx context.Context, req driven.GenerationRequest) (string, error) {
	p := g.policy
	p.OnRetry = onRetry("generation", g.inner.ModelName())

	text, stats, err := retry.Do(ctx, p, func(ctx context.Context) (string, error) {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}
		text, err := g.inner.Generate(ctx, req)
		if errors.Is(err, domain.ErrRateLimited) && g.limiter != nil {
			g.limiter.RecordRateLimitError()
		}
		return text, err
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("provider returned an empty answer")
	}
	g.stats.record(stats, err)

	if err != nil {
		return "", fmt.Errorf("%w: %s after %d attempt(s): %w",
			domain.ErrGenerationService, g.inner.ModelName(), stats.Attempts, err)
	}
	return text, nil
}

// ModelName returns the underlying model name.
func (g *Generator) ModelName() string { return g.inner.ModelName() }

// Ping checks the provider once, without retries.
func (g *Generator) Ping(ctx context.Context) error { return g.inner.Ping(ctx) }

// Close releases the underlying provider.
func (g *Generator) Close() error { return g.inner.Close() }

// Metrics returns call counters since construction.
func (g *Generator) Metrics() Metrics { return g.stats.snapshot() }
