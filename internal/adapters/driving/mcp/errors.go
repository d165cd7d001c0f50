// Package mcp provides an MCP (Model Context Protocol) server adapter for Scribe.
// It lets AI assistants ask rules questions against ingested SRDs and upload
// new ones.
package mcp

import (
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// errorResult reports a domain failure as a tool error the assistant can
// read, prefixed with its kind so it can tell bad input from outages.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: domain.ErrorKind(err) + ": " + err.Error()},
		},
	}
}
