package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestGenerationConfig_Sanitize(t *testing.T) {
	t.Run("keeps valid values", func(t *testing.T) {
		in := GenerationConfig{
			Temperature:   ptr(0.2),
			TopP:          ptr(1.0),
			MaxTokens:     ptr(512),
			StopSequences: []string{"\n\nUser:", ""},
		}
		out, warnings := in.Sanitize()
		assert.Empty(t, warnings)
		require.NotNil(t, out.Temperature)
		assert.Equal(t, 0.2, *out.Temperature)
		assert.Equal(t, 1.0, *out.TopP)
		assert.Equal(t, 512, *out.MaxTokens)
		assert.Equal(t, []string{"\n\nUser:"}, out.StopSequences)
	})

	t.Run("drops out of range values", func(t *testing.T) {
		in := GenerationConfig{
			Temperature: ptr(1.5),
			TopP:        ptr(-0.1),
			MaxTokens:   ptr(MaxGenerationTokens + 1),
		}
		out, warnings := in.Sanitize()
		assert.Len(t, warnings, 3)
		assert.True(t, out.IsZero())
	})

	t.Run("zero max tokens dropped", func(t *testing.T) {
		out, warnings := GenerationConfig{MaxTokens: ptr(0)}.Sanitize()
		assert.Len(t, warnings, 1)
		assert.Nil(t, out.MaxTokens)
	})
}

func TestQueryRequest_ToQueryClampsTopK(t *testing.T) {
	assert.Equal(t, MaxTopK, QueryRequest{Query: "q", SRDID: "a", TopK: 500}.ToQuery().TopK)
	assert.Equal(t, 7, QueryRequest{Query: "q", SRDID: "a", TopK: 7}.ToQuery().TopK)
	assert.Equal(t, 0, QueryRequest{Query: "q", SRDID: "a"}.ToQuery().TopK)
}

func TestQueryRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     QueryRequest
		wantErr bool
	}{
		{"valid", QueryRequest{Query: "What is grapple?", SRDID: "dnd5e"}, false},
		{"empty query", QueryRequest{Query: "  ", SRDID: "dnd5e"}, true},
		{"bad srd", QueryRequest{Query: "q", SRDID: "../x"}, true},
		{"negative k", QueryRequest{Query: "q", SRDID: "a", TopK: -1}, true},
		{"k above maximum is accepted", QueryRequest{Query: "q", SRDID: "a", TopK: MaxTopK + 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQueryRequest_ToQuery(t *testing.T) {
	req := QueryRequest{
		Query:            "q",
		SRDID:            "a",
		UseGenerative:    true,
		GenerationConfig: &GenerationConfig{MaxTokens: ptr(10)},
		TopK:             3,
	}
	q := req.ToQuery()
	assert.Equal(t, "a", q.SRDID)
	assert.True(t, q.UseGenerative)
	assert.Equal(t, 3, q.TopK)
	assert.Equal(t, 10, *q.Generation.MaxTokens)
}

func TestNewQueryResponse_NilSources(t *testing.T) {
	resp := NewQueryResponse(&Answer{Text: "x"})
	assert.NotNil(t, resp.SourceChunkIDs)
	assert.Empty(t, resp.SourceChunkIDs)
}

func TestCacheEntry_Expired(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := CacheEntry{CreatedAt: created, TTL: time.Hour}

	assert.False(t, e.Expired(created.Add(59*time.Minute)))
	assert.True(t, e.Expired(created.Add(time.Hour)))
	assert.True(t, e.Expired(created.Add(2*time.Hour)))
}

func TestParseMetric(t *testing.T) {
	for _, s := range []string{"cosine", "dot", "l2"} {
		m, err := ParseMetric(s)
		require.NoError(t, err)
		assert.Equal(t, Metric(s), m)
	}

	_, err := ParseMetric("manhattan")
	assert.ErrorIs(t, err, ErrConfiguration)

	assert.True(t, MetricL2.Ascending())
	assert.False(t, MetricCosine.Ascending())
}
