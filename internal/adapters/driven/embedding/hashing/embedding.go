// Package hashing is an offline embedding service. It projects word and
// bigram features into a fixed number of buckets with signed feature
// hashing, so identical text always maps to the identical unit vector and
// texts sharing vocabulary score close under cosine similarity.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	// DefaultDimensions is used when the configured dimension is zero.
	DefaultDimensions = 256

	// ModelName identifies the feature set. Changing tokenisation or
	// weights needs a new name, since existing indexes would no longer match.
	ModelName = "hashing-v1"
)

// EmbeddingService is safe for concurrent use.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService returns a hashing embedder with the given width.
func NewEmbeddingService(dimensions int) (*EmbeddingService, error) {
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}
	if dimensions < 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive, got %d", domain.ErrConfiguration, dimensions)
	}
	return &EmbeddingService{dimensions: dimensions}, nil
}

// Embed returns the unit vector for text. Text with no letters or digits
// maps to the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(text), nil
}

// EmbedBatch embeds each text in order. It stops at the first check of a
// cancelled ctx.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vector(text)
	}
	return out, nil
}

// vector sums signed word and bigram features, then L2-normalises.
func (s *EmbeddingService) vector(text string) []float32 {
	acc := make([]float64, s.dimensions)
	words := tokens(text)
	for i, w := range words {
		s.add(acc, w, 1)
		if i > 0 {
			s.add(acc, words[i-1]+" "+w, 0.5)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	vec := make([]float32, s.dimensions)
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

func (s *EmbeddingService) add(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[bucket] += weight
}

func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Dimensions returns the vector width chosen at construction.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns ModelName.
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds; there is nothing remote to reach.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *EmbeddingService) Close() error {
	return nil
}
