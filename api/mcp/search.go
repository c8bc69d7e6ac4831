package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/wikiart/api/search"
)

var (
	searchToolName    = "search_artworks"
	searchDescription = "Search the artwork catalog by meaning. Returns the most relevant artworks for the query with their title, artist, year, style and similarity score."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"what to look for, e.g. a subject, style or artist"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of artworks to return (default: 5, at most 50)"`
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, apisearch.SearchOutput, error) {
	output, err := apisearch.Search(ctx, s.config.Searcher, input.Query, input.TopK, s.config.Logger)
	if err != nil {
		s.config.Logger.Error("MCP search failed", "error", err)
		return errorResult(fmt.Sprintf("Search failed: %v", err)), apisearch.SearchOutput{}, nil
	}

	// Tools returning structured content also return the serialized JSON
	// in a TextContent block for older clients.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), apisearch.SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, *output, nil
}
