package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Scribe resources.
	uriScheme = "scribe://"

	timeFormat = "2006-01-02T15:04:05Z07:00"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.SRD == nil {
		return
	}

	// Static resource for the SRD list.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "srds",
		Name:        "srds",
		Description: "All ingested SRDs with their current index versions",
		MIMEType:    "application/json",
	}, s.handleSRDsResource)

	// Template for a version manifest.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "srds/{srdId}/manifest",
		Name:        "srd-manifest",
		Description: "Manifest of the current index version of an SRD",
		MIMEType:    "application/json",
	}, s.handleManifestResource)

	// Template for ingestion history.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "srds/{srdId}/jobs",
		Name:        "srd-jobs",
		Description: "Ingestion jobs recorded for an SRD, newest first",
		MIMEType:    "application/json",
	}, s.handleJobsResource)
}

// handleSRDsResource returns all ingested SRDs.
func (s *Server) handleSRDsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	srds, err := s.ports.SRD.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing srds: %w", err)
	}

	infos := make([]SRDOutput, len(srds))
	for i, srd := range srds {
		infos[i] = SRDOutput{
			SRDID:          srd.ID,
			CurrentVersion: srd.CurrentVersion,
			UpdatedAt:      srd.UpdatedAt.Format(timeFormat),
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleManifestResource returns the current manifest of an SRD.
func (s *Server) handleManifestResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	srdID := extractSRDID(req.Params.URI, "/manifest")
	if srdID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	m, err := s.ports.SRD.Manifest(ctx, srdID)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return jsonResource(req.Params.URI, m)
}

// handleJobsResource returns the ingestion history of an SRD.
func (s *Server) handleJobsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	srdID := extractSRDID(req.Params.URI, "/jobs")
	if srdID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	jobs, err := s.ports.SRD.Jobs(ctx, srdID)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}

	type jobInfo struct {
		ID        string `json:"id"`
		Version   int    `json:"version"`
		State     string `json:"state"`
		Error     string `json:"error,omitempty"`
		UpdatedAt string `json:"updated_at"`
	}
	infos := make([]jobInfo, len(jobs))
	for i, j := range jobs {
		infos[i] = jobInfo{
			ID:        j.ID,
			Version:   j.Version,
			State:     string(j.State),
			Error:     j.Error,
			UpdatedAt: j.UpdatedAt.Format(timeFormat),
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSRDID extracts the SRD id from a URI like scribe://srds/{srdId}<suffix>.
func extractSRDID(uri, suffix string) string {
	const prefix = uriScheme + "srds/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	id := strings.TrimSuffix(uri, suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
