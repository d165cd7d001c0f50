package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func TestExtractSRDID(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		suffix string
		want   string
	}{
		{"manifest", "scribe://srds/basic-rules/manifest", "/manifest", "basic-rules"},
		{"jobs", "scribe://srds/monsters/jobs", "/jobs", "monsters"},
		{"wrong scheme", "other://srds/x/jobs", "/jobs", ""},
		{"wrong suffix", "scribe://srds/x/jobs", "/manifest", ""},
		{"nested", "scribe://srds/a/b/jobs", "/jobs", ""},
		{"empty", "", "/jobs", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractSRDID(tt.uri, tt.suffix))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleSRDsResource(t *testing.T) {
	ctx := context.Background()
	mockSRD := &mockSRDService{
		srds: []domain.SRD{{ID: "basic-rules", CurrentVersion: 2, UpdatedAt: time.Now()}},
	}
	server, err := NewServer(&Ports{Query: &mockQueryService{}, SRD: mockSRD})
	require.NoError(t, err)

	result, err := server.handleSRDsResource(ctx, makeReadResourceRequest("scribe://srds"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var srds []SRDOutput
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &srds))
	require.Len(t, srds, 1)
	assert.Equal(t, "basic-rules", srds[0].SRDID)
	assert.Equal(t, 2, srds[0].CurrentVersion)
}

func TestServer_handleManifestResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns manifest", func(t *testing.T) {
		mockSRD := &mockSRDService{
			manifest: &domain.Manifest{SRDID: "basic-rules", Version: 4, Dimension: 256, ChunkCount: 12},
		}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, SRD: mockSRD})
		require.NoError(t, err)

		result, err := server.handleManifestResource(ctx, makeReadResourceRequest("scribe://srds/basic-rules/manifest"))
		require.NoError(t, err)

		var m domain.Manifest
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &m))
		assert.Equal(t, 4, m.Version)
		assert.Equal(t, 12, m.ChunkCount)
	})

	t.Run("invalid uri returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}, SRD: &mockSRDService{}})
		require.NoError(t, err)

		_, err = server.handleManifestResource(ctx, makeReadResourceRequest("scribe://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("service error is wrapped", func(t *testing.T) {
		mockSRD := &mockSRDService{err: fmt.Errorf("%w: srd", domain.ErrNotFound)}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, SRD: mockSRD})
		require.NoError(t, err)

		_, err = server.handleManifestResource(ctx, makeReadResourceRequest("scribe://srds/x/manifest"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleJobsResource(t *testing.T) {
	ctx := context.Background()
	mockSRD := &mockSRDService{
		jobs: []domain.IngestionJob{
			{ID: "job-2", SRDID: "basic-rules", Version: 2, State: domain.StateFailed, Error: "document is empty"},
			{ID: "job-1", SRDID: "basic-rules", Version: 1, State: domain.StatePersisted},
		},
	}
	server, err := NewServer(&Ports{Query: &mockQueryService{}, SRD: mockSRD})
	require.NoError(t, err)

	result, err := server.handleJobsResource(ctx, makeReadResourceRequest("scribe://srds/basic-rules/jobs"))
	require.NoError(t, err)

	var jobs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &jobs))
	require.Len(t, jobs, 2)
	assert.Equal(t, "failed", jobs[0]["state"])
	assert.Equal(t, "document is empty", jobs[0]["error"])
	assert.Equal(t, "persisted", jobs[1]["state"])
}
