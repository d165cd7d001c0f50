package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestEmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Len(t, req.Input, 2)
		_, _ = w.Write([]byte(`{"embeddings":[[1,2],[3,4]]}`))
	}))
	defer srv.Close()

	svc := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2})
	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, vecs)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,2]]}`))
	}))
	defer srv.Close()

	svc := NewEmbeddingService(Config{BaseURL: srv.URL})
	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestEmbed_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewEmbeddingService(Config{BaseURL: srv.URL})
	_, err := svc.Embed(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestEmbed_ModelMissingIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	svc := NewEmbeddingService(Config{BaseURL: srv.URL})
	_, err := svc.Embed(context.Background(), "a")
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err))
}

func TestPing_Unreachable(t *testing.T) {
	svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	err := svc.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransient)
}
