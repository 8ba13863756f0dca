// Package mcp exposes the active copilot session's memory over the Model
// Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/tracememory/pkg/memory"
	"github.com/papercomputeco/tracememory/pkg/store"
	"github.com/papercomputeco/tracememory/pkg/utils"
)

// Copilot is the session surface the tools read from.
type Copilot interface {
	Context(ctx context.Context, minRating float64) (*memory.Context, error)
	Facts(ctx context.Context) ([]memory.FactItem, error)
	Pinned() ([]store.PinnedFact, error)
}

type Config struct {
	// Copilot serves every tool call.
	Copilot Copilot

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	if c.Copilot == nil {
		return nil, errors.New("copilot is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "tracememory",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        memoryContextToolName,
		Description: memoryContextDescription,
	}, s.handleMemoryContext)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        memoryFactsToolName,
		Description: memoryFactsDescription,
	}, s.handleMemoryFacts)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        pinnedFactsToolName,
		Description: pinnedFactsDescription,
	}, s.handlePinnedFacts)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, nil
}
