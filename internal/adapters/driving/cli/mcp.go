package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/adapters/driving/mcp"
	"github.com/custodia-labs/scribe/internal/logger"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --http to serve streamable HTTP instead, for the MCP Inspector or
remote access.

Tools: ask_srd, ingest_srd, list_srds.
Resources: scribe://srds, scribe://srds/{srdId}/manifest, scribe://srds/{srdId}/jobs.

Examples:
  # Stdio mode (default)
  scribe mcp

  # HTTP mode
  scribe mcp --http 127.0.0.1:8765`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	if s.Ping != nil {
		if err := s.Ping(cmd.Context()); err != nil {
			logger.Warn("%v", err)
		}
	}

	stop := startJanitor(cmd.Context(), s)
	defer stop()

	server, err := mcp.NewServer(&mcp.Ports{
		Query:  s.Query,
		Ingest: s.Ingest,
		SRD:    s.SRD,
	}, mcp.WithFs(fsys))
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}

	return server.Run(cmd.Context())
}
