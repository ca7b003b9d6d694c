// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package mcpserver exposes the tool dispatcher over the Model Context
// Protocol using mark3labs/mcp-go.
package mcpserver

import (
	"context"
	"errors"
	"io"
	stdlog "log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/sqlite-mcp/internal/log"
	"github.com/ManuGH/sqlite-mcp/internal/tools"
)

// Name is the server name announced during initialization.
const Name = "sqlite-mcp"

// Server binds a dispatcher to an MCP server.
type Server struct {
	mcp        *server.MCPServer
	dispatcher *tools.Dispatcher
	logger     zerolog.Logger
}

// New registers every tool of d with a new MCP server.
func New(d *tools.Dispatcher, version string) *Server {
	s := &Server{
		mcp: server.NewMCPServer(
			Name,
			version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
		dispatcher: d,
		logger:     xglog.WithComponent("mcpserver"),
	}
	for _, def := range d.ListTools() {
		s.mcp.AddTool(mcp.NewToolWithRawSchema(def.Name, def.Description, def.InputSchema), s.handle)
	}
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves newline-delimited JSON-RPC on in and out until ctx is
// cancelled or in is closed. Diagnostics go to the structured logger, never
// to out.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(s.logger, "", 0))

	s.logger.Info().Str(xglog.FieldEvent, "transport.start").Msg("serving MCP over stdio")
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return err
	}
	s.logger.Info().Str(xglog.FieldEvent, "transport.stop").Msg("stdio transport stopped")
	return nil
}

func (s *Server) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toCallToolResult(s.dispatcher.Call(ctx, req.Params.Name, req.GetArguments())), nil
}

func toCallToolResult(res tools.Result) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(res.Content))
	for _, c := range res.Content {
		content = append(content, mcp.NewTextContent(c.Text))
	}
	return &mcp.CallToolResult{
		Content:           content,
		StructuredContent: res.Structured,
		IsError:           res.IsError,
	}
}
