package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestNewEmbeddingService(t *testing.T) {
	svc, err := NewEmbeddingService(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, ModelName, svc.ModelName())

	_, err = NewEmbeddingService(-1)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestEmbed_DeterministicUnitVectors(t *testing.T) {
	svc, err := NewEmbeddingService(64)
	require.NoError(t, err)

	a, err := svc.Embed(context.Background(), "Rule B. Grappling requires a free hand.")
	require.NoError(t, err)
	b, err := svc.Embed(context.Background(), "Rule B. Grappling requires a free hand.")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, math.Sqrt(dot(a, a)), 1e-5)
}

func TestEmbed_SharedVocabularyScoresHigher(t *testing.T) {
	svc, err := NewEmbeddingService(512)
	require.NoError(t, err)

	vecs, err := svc.EmbedBatch(context.Background(), []string{
		"What is Rule B?",
		"Rule B. ",
		"Fireball deals fire damage in a sphere.",
	})
	require.NoError(t, err)

	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
}

func TestEmbed_EmptyTextIsZeroVector(t *testing.T) {
	svc, err := NewEmbeddingService(8)
	require.NoError(t, err)

	v, err := svc.Embed(context.Background(), "  ...  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), v)
}

func TestEmbedBatch_Cancelled(t *testing.T) {
	svc, err := NewEmbeddingService(8)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.EmbedBatch(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbeddingService_Lifecycle(t *testing.T) {
	svc, err := NewEmbeddingService(32)
	require.NoError(t, err)

	assert.Equal(t, 32, svc.Dimensions())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())

	v, err := svc.Embed(context.Background(), "!!! ???")
	require.NoError(t, err)
	assert.Len(t, v, 32)
	assert.Zero(t, dot(v, v))
}
