package mcp

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// AskInput is the input schema for the ask_srd tool.
type AskInput struct {
	Query          string                   `json:"query" jsonschema:"the rules question to answer"`
	SRDID          string                   `json:"srd_id" jsonschema:"identifier of the ingested rules document"`
	UseGenerative  bool                     `json:"use_generative,omitempty" jsonschema:"answer with the language model instead of quoting retrieved text"`
	Conversational bool                     `json:"conversational,omitempty" jsonschema:"frame the question as a chat turn"`
	TopK           int                      `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (1-50)"`
	Generation     *domain.GenerationConfig `json:"generation_config,omitempty" jsonschema:"optional sampling parameters for generative answers"`
}

// IngestInput is the input schema for the ingest_srd tool.
type IngestInput struct {
	Path        string `json:"path" jsonschema:"path of the document file to ingest"`
	SRDID       string `json:"srd_id,omitempty" jsonschema:"identifier to store it under (derived from the file name when empty)"`
	ContentType string `json:"content_type,omitempty" jsonschema:"MIME type (guessed from the extension when empty)"`
}

// ListInput is the (empty) input schema for the list_srds tool.
type ListInput struct{}

// SRDOutput describes one ingested SRD.
type SRDOutput struct {
	SRDID          string `json:"srd_id"`
	CurrentVersion int    `json:"current_version"`
	UpdatedAt      string `json:"updated_at"`
}

// ListOutput is the output schema for the list_srds tool.
type ListOutput struct {
	SRDs  []SRDOutput `json:"srds"`
	Count int         `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_srd",
		Description: "Answer a question about an ingested tabletop rules document, with the chunk ids it used",
	}, s.handleAsk)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_srd",
			Description: "Ingest a rules document from a file and publish a new index version",
		}, s.handleIngest)
	}

	if s.ports.SRD != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_srds",
			Description: "List ingested rules documents and their current versions",
		}, s.handleList)
	}
}

// handleAsk handles the ask_srd tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, domain.QueryResponse, error) {
	resp, err := s.ports.Query.Ask(ctx, domain.QueryRequest{
		Query:            input.Query,
		SRDID:            input.SRDID,
		UseGenerative:    input.UseGenerative,
		Conversational:   input.Conversational,
		GenerationConfig: input.Generation,
		TopK:             input.TopK,
	})
	if err != nil {
		return errorResult(err), domain.QueryResponse{}, nil
	}
	return nil, *resp, nil
}

// handleIngest handles the ingest_srd tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, domain.IngestResult, error) {
	if input.Path == "" {
		return errorResult(fmt.Errorf("%w: path is required", domain.ErrValidation)), domain.IngestResult{}, nil
	}

	content, err := afero.ReadFile(s.fs, input.Path)
	if err != nil {
		return errorResult(fmt.Errorf("%w: read %s: %v", domain.ErrValidation, input.Path, err)), domain.IngestResult{}, nil
	}

	res, err := s.ports.Ingest.Ingest(ctx, domain.IngestRequest{
		SRDID:       input.SRDID,
		Filename:    filepath.Base(input.Path),
		ContentType: input.ContentType,
		Content:     content,
	})
	if err != nil {
		return errorResult(err), domain.IngestResult{}, nil
	}
	return nil, *res, nil
}

// handleList handles the list_srds tool invocation.
func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	srds, err := s.ports.SRD.List(ctx)
	if err != nil {
		return errorResult(err), ListOutput{}, nil
	}

	output := ListOutput{
		SRDs:  make([]SRDOutput, len(srds)),
		Count: len(srds),
	}
	for i, srd := range srds {
		output.SRDs[i] = SRDOutput{
			SRDID:          srd.ID,
			CurrentVersion: srd.CurrentVersion,
			UpdatedAt:      srd.UpdatedAt.Format(timeFormat),
		}
	}
	return nil, output, nil
}
