// Package mcpserver publishes the dashboard tool catalog as an MCP server,
// so other agents can call get_series, make_chart and the rest directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/comigor/econlux-go/internal/logger"
	"github.com/comigor/econlux-go/pkg/tools"
)

// New registers every tool of tm on a fresh MCP server, keeping the
// catalog's JSON schemas.
func New(name, version string, tm *tools.ToolManager) (*server.MCPServer, error) {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))
	for _, t := range tm.List() {
		schema, err := json.Marshal(t.Parameters())
		if err != nil {
			return nil, fmt.Errorf("schema for %s: %w", t.Name(), err)
		}
		s.AddTool(mcp.NewToolWithRawSchema(t.Name(), t.Description(), schema), handler(tm, t.Name()))
	}
	return s, nil
}

// ServeStdio runs s over in and out until the input closes or ctx ends.
// Nothing but protocol messages may be written to out.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.L.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

func handler(tm *tools.ToolManager, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := json.RawMessage(`{}`)
		if req.Params.Arguments != nil {
			raw, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
			}
			args = raw
		}

		result, err := tm.Execute(ctx, name, args)
		if err != nil {
			logger.L.Warn("mcp tool call failed", "tool", name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		if e, ok := result.(tools.ErrorResult); ok {
			return mcp.NewToolResultError(e.Error), nil
		}

		body, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", name, err)
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}
