// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the notes table to LLM tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultql/internal/apperr"
	"github.com/starford/vaultql/internal/noteservice"
)

const guideURI = "vaultql://query-guide"

// Server wraps the MCP server with the vaultql tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"vaultql",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("query_notes",
		mcp.WithDescription("Run a read-only SQL statement against the notes table. "+
			"Read the query guide first via the get_query_guide tool or the "+guideURI+" resource."),
		mcp.WithString("sql", mcp.Required(), mcp.Description("SELECT statement, e.g. SELECT file_path FROM notes")),
	), s.queryNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List note paths in scan order."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of notes (default 100)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note by its file_path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("The note's file_path as returned by list_notes")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("describe_table",
		mcp.WithDescription("Describe the notes table: name, columns and module version."),
	), s.describeTable)

	s.mcp.AddTool(mcp.NewTool("get_query_guide",
		mcp.WithDescription("Returns the guide to the notes table and its query rules."),
	), s.getQueryGuide)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Query Guide",
			mcp.WithResourceDescription("Shape of the notes table and how to query it."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readQueryGuideResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError reports err to the client. Vault failures are logged and
// reported without their text.
func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrIO) || errors.Is(err, apperr.ErrPathNotFound) {
		slog.Error("mcp: vault unavailable", slog.String("error", err.Error()))
		return mcp.NewToolResultError("vault unavailable")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) queryNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("sql")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Query(ctx, q)
	if err != nil {
		if errors.Is(err, apperr.ErrReadOnly) {
			return mcp.NewToolResultError("only read-only statements are allowed"), nil
		}
		return toolError(err), nil
	}
	out, _ := json.MarshalIndent(res.Records(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListNotes(ctx, req.GetInt("limit", 0))
	if err != nil {
		return toolError(err), nil
	}
	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.Path
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return toolError(err), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) describeTable(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.svc.Describe(ctx)
	if err != nil {
		return toolError(err), nil
	}
	out, _ := json.MarshalIndent(info, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getQueryGuide(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(QueryGuide), nil
}

func (s *Server) readQueryGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     QueryGuide,
		},
	}, nil
}
