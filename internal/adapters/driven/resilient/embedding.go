// Package resilient wraps the embedding and generative capabilities with a
// bounded retry policy and a shared rate limiter.
//
// Callers see one of two outcomes: a result, or an error wrapping
// domain.ErrEmbeddingService / domain.ErrGenerationService together with
// the provider's last error.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/logger"
	"github.com/custodia-labs/scribe/internal/retry"
)

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Embedder adds retries, rate limiting and output checks to an EmbeddingService.
type Embedder struct {
	inner   driven.EmbeddingService
	policy  retry.Policy
	limiter *RateLimiter
	stats   counters
}

// NewEmbedder wraps inner. A nil limiter disables rate limiting.
func NewEmbedder(inner driven.EmbeddingService, policy retry.Policy, limiter *RateLimiter) *Embedder {
	return &Embedder{inner: inner, policy: policy, limiter: limiter}
}

// Embed generates one vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates one vector per text. Every vector is checked
// against the configured dimension.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	p := e.policy
	p.OnRetry = onRetry("embedding", e.inner.ModelName())

	vectors, stats, err := retry.Do(ctx, p, func(ctx context.Context) ([][]float32, error) {
		if err := e.wait(ctx); err != nil {
			return nil, err
		}
		vectors, err := e.inner.EmbedBatch(ctx, texts)
		if errors.Is(err, domain.ErrRateLimited) && e.limiter != nil {
			e.limiter.RecordRateLimitError()
		}
		return vectors, err
	})
	if err == nil {
		err = e.check(texts, vectors)
	}
	e.stats.record(stats, err)

	if err != nil {
		return nil, fmt.Errorf("%w: %s after %d attempt(s): %w",
			domain.ErrEmbeddingService, e.inner.ModelName(), stats.Attempts, err)
	}
	return vectors, nil
}

func (e *Embedder) check(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(texts))
	}
	dim := e.inner.Dimensions()
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	return nil
}

func (e *Embedder) wait(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int { return e.inner.Dimensions() }

// ModelName returns the underlying model name.
func (e *Embedder) ModelName() string { return e.inner.ModelName() }

// Ping checks the provider once, without retries.
func (e *Embedder) Ping(ctx context.Context) error { return e.inner.Ping(ctx) }

// Close releases the underlying provider.
func (e *Embedder) Close() error { return e.inner.Close() }

// Metrics returns call counters since construction.
func (e *Embedder) Metrics() Metrics { return e.stats.snapshot() }

func onRetry(capability, model string) func(int, error, time.Duration) {
	return func(attempt int, err error, delay time.Duration) {
		logger.Warn("%s %s: attempt %d failed (%v), retrying in %s", capability, model, attempt, err, delay)
	}
}
