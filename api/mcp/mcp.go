// Package mcp provides an MCP (Model Context Protocol) server exposing artwork
// search and art questions as tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/wikiart/api/search"
	"github.com/papercomputeco/wikiart/pkg/chat"
	"github.com/papercomputeco/wikiart/pkg/utils"
)

type Config struct {
	// Searcher backs the search_artworks tool.
	Searcher apisearch.Searcher

	// Orchestrator backs the ask_about_art tool.
	Orchestrator *chat.Orchestrator

	// Sessions lets ask_about_art continue an existing conversation.
	Sessions *chat.Registry

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the artwork tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "wikiart",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Searcher == nil {
			return nil, errors.New("searcher is required")
		}
		if c.Orchestrator == nil {
			return nil, errors.New("orchestrator is required")
		}
		if c.Sessions == nil {
			return nil, errors.New("session registry is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        searchToolName,
			Description: searchDescription,
		}, s.handleSearch)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        askToolName,
			Description: askDescription,
		}, s.handleAsk)
	}

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

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
