package echo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

func TestGenerate_FirstChunk(t *testing.T) {
	svc := NewLLMService()
	prompt := "Context:\n[chunk 1]\nRule B. \n\n---\n\n[chunk 0]\nRule A. \n\nQuestion: What is Rule B?"

	out, err := svc.Generate(context.Background(), driven.GenerationRequest{Prompt: prompt})
	require.NoError(t, err)
	assert.Equal(t, "Rule B.", out)
}

func TestGenerate_NoChunkEchoesPrompt(t *testing.T) {
	out, err := NewLLMService().Generate(context.Background(), driven.GenerationRequest{Prompt: " hello "})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestGenerate_HonoursConfig(t *testing.T) {
	n := 2
	out, err := NewLLMService().Generate(context.Background(), driven.GenerationRequest{
		Prompt: "one two three STOP four",
		Config: domain.GenerationConfig{MaxTokens: &n, StopSequences: []string{"STOP"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "one two", out)
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLLMService().Generate(ctx, driven.GenerationRequest{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
