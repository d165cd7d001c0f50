package mcp

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with provenance", func(t *testing.T) {
		mockQuery := &mockQueryService{
			resp: &domain.QueryResponse{
				Answer:         "Based on the retrieved SRD content",
				SourceChunkIDs: []int{1, 0},
				Version:        2,
				Mode:           domain.ModeExtractive,
			},
		}
		server, err := NewServer(&Ports{Query: mockQuery})
		require.NoError(t, err)

		temp := 0.2
		input := AskInput{
			Query:         "What is Rule B?",
			SRDID:         "basic-rules",
			TopK:          3,
			UseGenerative: true,
			Generation:    &domain.GenerationConfig{Temperature: &temp},
		}
		res, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Equal(t, []int{1, 0}, output.SourceChunkIDs)
		assert.Equal(t, 2, output.Version)
		assert.Equal(t, "basic-rules", mockQuery.lastReq.SRDID)
		assert.Equal(t, 3, mockQuery.lastReq.TopK)
		assert.True(t, mockQuery.lastReq.UseGenerative)
		require.NotNil(t, mockQuery.lastReq.GenerationConfig)
		assert.Equal(t, 0.2, *mockQuery.lastReq.GenerationConfig.Temperature)
	})

	t.Run("reports domain errors as tool errors", func(t *testing.T) {
		mockQuery := &mockQueryService{
			err: fmt.Errorf("%w: srd %q", domain.ErrNotFound, "missing"),
		}
		server, err := NewServer(&Ports{Query: mockQuery})
		require.NoError(t, err)

		res, _, err := server.handleAsk(ctx, nil, AskInput{Query: "q", SRDID: "missing"})

		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "not_found: ")
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("reads the file and ingests it", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "/uploads/basic-rules.md", []byte("# Rules"), 0o644))

		mockIngest := &mockIngestService{
			result: &domain.IngestResult{JobID: "job-1", SRDID: "basic-rules", Version: 1},
		}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Ingest: mockIngest}, WithFs(fsys))
		require.NoError(t, err)

		res, output, err := server.handleIngest(ctx, nil, IngestInput{Path: "/uploads/basic-rules.md"})

		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Equal(t, 1, output.Version)
		assert.Equal(t, "basic-rules.md", mockIngest.lastReq.Filename)
		assert.Equal(t, []byte("# Rules"), mockIngest.lastReq.Content)
	})

	t.Run("missing path is a validation error", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Ingest: &mockIngestService{}})
		require.NoError(t, err)

		res, _, err := server.handleIngest(ctx, nil, IngestInput{})

		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "validation: ")
	})

	t.Run("unreadable file is a validation error", func(t *testing.T) {
		server, err := NewServer(
			&Ports{Query: &mockQueryService{}, Ingest: &mockIngestService{}},
			WithFs(afero.NewMemMapFs()),
		)
		require.NoError(t, err)

		res, _, err := server.handleIngest(ctx, nil, IngestInput{Path: "/nope.md"})

		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "validation: ")
	})

	t.Run("ingest failure is reported", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "/a.txt", []byte("x"), 0o644))
		mockIngest := &mockIngestService{err: fmt.Errorf("%w: down", domain.ErrEmbeddingService)}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Ingest: mockIngest}, WithFs(fsys))
		require.NoError(t, err)

		res, _, err := server.handleIngest(ctx, nil, IngestInput{Path: "/a.txt"})

		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "embedding_service: ")
	})
}

func TestServer_handleList(t *testing.T) {
	ctx := context.Background()

	t.Run("lists srds", func(t *testing.T) {
		updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		mockSRD := &mockSRDService{
			srds: []domain.SRD{
				{ID: "basic-rules", CurrentVersion: 3, UpdatedAt: updated},
				{ID: "monsters", CurrentVersion: 1, UpdatedAt: updated},
			},
		}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, SRD: mockSRD})
		require.NoError(t, err)

		res, output, err := server.handleList(ctx, nil, ListInput{})

		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "basic-rules", output.SRDs[0].SRDID)
		assert.Equal(t, 3, output.SRDs[0].CurrentVersion)
		assert.Equal(t, "2026-03-01T12:00:00Z", output.SRDs[0].UpdatedAt)
	})

	t.Run("store failure is reported", func(t *testing.T) {
		mockSRD := &mockSRDService{err: fmt.Errorf("disk gone")}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, SRD: mockSRD})
		require.NoError(t, err)

		res, _, err := server.handleList(ctx, nil, ListInput{})

		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "internal: disk gone")
	})
}
