// Package mcp exposes the PR report pipeline as MCP tools over stdio, so
// agent tooling can pull a live report without shelling out to the CLI.
package mcp

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/prtrack/prtrack/internal/github"
	"github.com/prtrack/prtrack/internal/output"
	"github.com/prtrack/prtrack/internal/report"
	"github.com/prtrack/prtrack/internal/tracker"
)

// Server wraps the pipeline and exposes it as MCP tools.
type Server struct {
	client  github.Client
	ui      *output.UI
	workers int
}

// NewServer creates the MCP server wrapper. Diagnostics from enrichment go
// to ui; tool results carry the rendered report.
func NewServer(client github.Client, ui *output.UI, workers int) *Server {
	return &Server{client: client, ui: ui, workers: workers}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("prtrack", "1.0.0", server.WithToolCapabilities(true))
	srv.AddTool(s.reportTool())
	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// pr_report
func (s *Server) reportTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pr_report",
		mcp.WithDescription("Generate a pull-request review report for the configured repository. Returns the rendered report text."),
		mcp.WithString("format", mcp.Description("Output format: csv or markdown (default markdown)")),
		mcp.WithBoolean("closed", mcp.Description("Include PRs closed in the last 7 days")),
	)
	return tool, s.handleReport
}

func (s *Server) handleReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", string(report.FormatMarkdown))
	f, err := report.ParseFormat(format)
	if err != nil || f == report.FormatTable {
		return mcp.NewToolResultError(fmt.Sprintf("invalid format: %s (use: csv, markdown)", format)), nil
	}

	rep, err := tracker.Run(ctx, s.client, s.ui, tracker.Options{
		IncludeClosed: request.GetBool("closed", false),
		Workers:       s.workers,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report run failed: %v", err)), nil
	}

	var body string
	switch f {
	case report.FormatCSV:
		body, err = report.RenderCSV(rep)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
		}
	default:
		body = report.RenderMarkdown(rep)
	}
	return mcp.NewToolResultText(body), nil
}
