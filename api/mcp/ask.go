package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/wikiart/api/search"
	"github.com/papercomputeco/wikiart/pkg/chat"
)

var (
	askToolName    = "ask_about_art"
	askDescription = "Ask a question about the artworks in the catalog. The answer is grounded in the most relevant catalog entries. Pass the returned session_id to ask follow-up questions."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question about art"`
	SessionID string `json:"session_id,omitempty" jsonschema:"continue an earlier conversation; omit to start a new one"`
}

// AskOutput is the grounded answer.
type AskOutput struct {
	SessionID string                   `json:"session_id"`
	Answer    string                   `json:"answer"`
	Sources   []apisearch.SearchResult `json:"sources"`
}

// handleAsk answers one question, creating a session when none is given.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	var (
		session *chat.Session
		created bool
		err     error
	)
	if input.SessionID != "" {
		session, err = s.config.Sessions.Get(input.SessionID)
		if err != nil {
			return errorResult(fmt.Sprintf("Unknown session %q", input.SessionID)), AskOutput{}, nil
		}
	} else {
		session = s.config.Sessions.Create()
		created = true
	}

	ex, err := s.config.Orchestrator.Exchange(ctx, session, input.Question)
	if err != nil {
		s.config.Logger.Error("MCP ask failed", "session", session.ID, "error", err)
		if created {
			// the caller never learns this id, so nothing could continue it
			_ = s.config.Sessions.Delete(session.ID)
		}
		return errorResult(fmt.Sprintf("Could not answer: %v", err)), AskOutput{}, nil
	}

	output := AskOutput{
		SessionID: session.ID,
		Answer:    ex.Answer.Text,
		Sources:   apisearch.Results(ex.Sources),
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: output.Answer},
		},
	}, output, nil
}
