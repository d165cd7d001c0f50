package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

const rulesText = `Combat

Each round represents about six seconds in the game world. During a round, each participant takes a turn.
The order of turns is determined at the beginning of a combat encounter, when everyone rolls initiative!

Grappling

When you want to grab a creature or wrestle with it, you can use the Attack action to make a special melee attack, a grapple. If you're able to make multiple attacks with the Attack action, this attack replaces one of them? Yes.
Escaping a grapple uses your action.`

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultChunkSize, p.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, p.overlap)
	})

	t.Run("custom values", func(t *testing.T) {
		p, err := New(WithChunkSize(500), WithOverlap(100))
		require.NoError(t, err)
		assert.Equal(t, 500, p.chunkSize)
		assert.Equal(t, 100, p.overlap)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		tests := []struct {
			name string
			opts []Option
		}{
			{"zero size", []Option{WithChunkSize(0)}},
			{"negative overlap", []Option{WithOverlap(-1)}},
			{"overlap equals size", []Option{WithChunkSize(100), WithOverlap(100)}},
			{"overlap exceeds size", []Option{WithChunkSize(100), WithOverlap(150)}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := New(tt.opts...)
				assert.ErrorIs(t, err, domain.ErrConfiguration)
			})
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	assert.Equal(t, "chunker", p.Name())
}

func TestProcessor_Process(t *testing.T) {
	p, err := New(WithChunkSize(80), WithOverlap(10))
	require.NoError(t, err)

	chunks, err := p.Process(context.Background(), &domain.Document{SRDID: "dnd5e", Content: rulesText}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Equal(t, "dnd5e", c.SRDID)
		assert.Equal(t, i, c.Index)
	}

	_, err = p.Process(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSplit_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t"} {
		_, err := Split("srd", text, 100, 10)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
}

func TestSplit_ConfigCheckedBeforeText(t *testing.T) {
	_, err := Split("srd", "", 10, 10)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSplit_SingleChunk(t *testing.T) {
	chunks, err := Split("srd", "Short rule.", 100, 20)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Short rule.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 11, chunks[0].End)
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	chunks, err := Split("srd", "Rule A. Rule B. Rule C.", 8, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Rule A. ", chunks[0].Text)
	assert.Equal(t, "Rule B. ", chunks[1].Text)
	assert.Equal(t, "Rule C.", chunks[2].Text)
}

func TestSplit_PrefersParagraphOverSentence(t *testing.T) {
	text := "Alpha one.\n\nBeta. Gamma delta epsilon zeta eta theta iota."
	chunks, err := Split("srd", text, 16, 0)
	require.NoError(t, err)
	assert.Equal(t, "Alpha one.\n\n", chunks[0].Text)
}

func TestSplit_HardCut(t *testing.T) {
	text := strings.Repeat("x", 25)
	chunks, err := Split("srd", text, 10, 2)
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, [2]int{0, 10}, [2]int{chunks[0].Start, chunks[0].End})
	assert.Equal(t, [2]int{8, 18}, [2]int{chunks[1].Start, chunks[1].End})
	assert.Equal(t, [2]int{16, 25}, [2]int{chunks[2].Start, chunks[2].End})
}

func TestSplit_Invariants(t *testing.T) {
	texts := map[string]string{
		"rules":   rulesText,
		"unicode": strings.Repeat("Das Würfeln ist übermächtig. ✨ Zaubersprüche!\n", 12),
		"dense":   strings.Repeat("abcdefghij", 40),
	}
	params := []struct{ size, overlap int }{
		{8, 0}, {16, 4}, {50, 10}, {64, 63}, {200, 50}, {1000, 200},
	}

	for name, text := range texts {
		for _, prm := range params {
			t.Run(name, func(t *testing.T) {
				chunks, err := Split("srd", text, prm.size, prm.overlap)
				require.NoError(t, err)

				n := len([]rune(text))
				assert.Equal(t, 0, chunks[0].Start)
				assert.Equal(t, n, chunks[len(chunks)-1].End)

				for i, c := range chunks {
					assert.LessOrEqual(t, c.Len(), prm.size)
					assert.Equal(t, c.Len(), len([]rune(c.Text)))
					if i > 0 {
						assert.Equal(t, chunks[i-1].End-prm.overlap, c.Start, "overlap must be exact")
					}
				}

				assert.Equal(t, text, Reassemble(chunks))

				again, err := Split("srd", text, prm.size, prm.overlap)
				require.NoError(t, err)
				assert.Equal(t, chunks, again)
			})
		}
	}
}
