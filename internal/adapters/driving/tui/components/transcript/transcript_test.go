package transcript

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func TestTranscript_Empty(t *testing.T) {
	tr := New(nil)

	assert.Empty(t, tr.Turns())
	assert.Contains(t, tr.Content(), "No questions yet.")
}

func TestTranscript_Append(t *testing.T) {
	tr := New(nil)
	tr.SetSize(120, 20)

	tr.Append(Turn{
		Question: "What is Rule B?",
		Response: &domain.QueryResponse{
			Answer:         "Rule B says hello.",
			SourceChunkIDs: []int{1, 0},
			Version:        2,
			Mode:           domain.ModeGenerative,
		},
	})
	tr.Append(Turn{Question: "And Rule Z?", Err: errors.New("srd not found")})

	require.Len(t, tr.Turns(), 2)
	content := tr.Content()
	assert.Contains(t, content, "What is Rule B?")
	assert.Contains(t, content, "Rule B says hello.")
	assert.Contains(t, content, "chunks [1, 0], version 2, generative")
	assert.Contains(t, content, "Error: srd not found")
	assert.NotEmpty(t, tr.View())
}

func TestTranscript_Clear(t *testing.T) {
	tr := New(nil)
	tr.Append(Turn{Question: "q", Err: errors.New("x")})

	tr.Clear()

	assert.Empty(t, tr.Turns())
}

func TestProvenance(t *testing.T) {
	resp := &domain.QueryResponse{
		SourceChunkIDs: []int{3},
		Version:        1,
		Mode:           domain.ModeExtractive,
		FromCache:      true,
	}

	assert.Equal(t, "chunks [3], version 1, extractive, cached", Provenance(resp))
}

func TestTranscript_Scroll(t *testing.T) {
	tr := New(nil)
	tr.SetSize(40, 4)
	for range 10 {
		tr.Append(Turn{Question: "q", Response: &domain.QueryResponse{Answer: "a", Mode: domain.ModeExtractive}})
	}
	bottom := tr.viewport.YOffset
	require.Positive(t, bottom)

	tr.ScrollUp()
	assert.Less(t, tr.viewport.YOffset, bottom)

	tr.ScrollDown()
	assert.Equal(t, bottom, tr.viewport.YOffset)
}
