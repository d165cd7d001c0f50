package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	resp    *domain.QueryResponse
	err     error
	lastReq domain.QueryRequest
}

func (m *mockQueryService) Ask(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

func (m *mockQueryService) Query(_ context.Context, _ domain.Query) (*domain.Answer, error) {
	return nil, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result  *domain.IngestResult
	err     error
	lastReq domain.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.lastReq = req
	return m.result, m.err
}

// mockSRDService is a mock implementation of driving.SRDService.
type mockSRDService struct {
	srds     []domain.SRD
	manifest *domain.Manifest
	jobs     []domain.IngestionJob
	err      error
}

func (m *mockSRDService) List(_ context.Context) ([]domain.SRD, error) {
	return m.srds, m.err
}

func (m *mockSRDService) Manifest(_ context.Context, _ string) (*domain.Manifest, error) {
	return m.manifest, m.err
}

func (m *mockSRDService) Jobs(_ context.Context, _ string) ([]domain.IngestionJob, error) {
	return m.jobs, m.err
}

func (m *mockSRDService) PurgeCache(_ context.Context, _ time.Time) (int, error) {
	return 0, m.err
}
