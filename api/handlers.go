package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/papercomputeco/wikiart/api/search"
	"github.com/papercomputeco/wikiart/pkg/llm"
	"github.com/papercomputeco/wikiart/pkg/search"
	"github.com/papercomputeco/wikiart/pkg/storage"
)

// IndexStatus describes the active index.
type IndexStatus struct {
	Ready      bool      `json:"ready"`
	Source     string    `json:"source,omitempty"`
	Entries    int       `json:"entries"`
	Dimensions int       `json:"dimensions,omitempty"`
	Model      string    `json:"model,omitempty"`
	BuiltAt    time.Time `json:"built_at,omitzero"`
}

// StatusResponse is returned by GET /v1/status.
type StatusResponse struct {
	Index    IndexStatus `json:"index"`
	Sessions int         `json:"sessions"`
}

// SessionResponse describes one session.
type SessionResponse struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Turns     []llm.Turn `json:"turns,omitempty"`
}

// MessageRequest is the body of POST /v1/sessions/:id/messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// MessageResponse is the assistant's reply with its grounding.
type MessageResponse struct {
	SessionID string                   `json:"session_id"`
	Reply     string                   `json:"reply"`
	Model     string                   `json:"model,omitempty"`
	Attempts  int                      `json:"attempts"`
	Sources   []apisearch.SearchResult `json:"sources"`
}

// TranscriptResponse lists a session's stored exchanges.
type TranscriptResponse struct {
	SessionID string           `json:"session_id"`
	Entries   []*storage.Entry `json:"entries"`
	Count     int              `json:"count"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStatus reports the active index and live session count.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{Sessions: s.config.Sessions.Len()}
	if s.config.Index != nil {
		resp.Index = indexStatus(s.config.Index.Snapshot())
	}
	return c.JSON(resp)
}

// handleRebuild rebuilds the index from the catalog and swaps it in.
func (s *Server) handleRebuild(c *fiber.Ctx) error {
	if s.config.Index == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "index management is not configured"})
	}

	snap, err := s.config.Index.Rebuild(c.Context())
	if snap == nil {
		return s.writeError(c, err)
	}
	if err != nil {
		// The rebuilt index is active; only persisting it failed.
		s.logger.Warn("rebuilt index not persisted", "error", err)
	}

	return c.JSON(indexStatus(snap))
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	session := s.config.Sessions.Create()
	s.logger.Debug("session created", "session", session.ID)
	return c.Status(fiber.StatusCreated).JSON(SessionResponse{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
	})
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions := s.config.Sessions.List()
	out := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, SessionResponse{ID: session.ID, CreatedAt: session.CreatedAt})
	}
	return c.JSON(fiber.Map{
		"count":    len(out),
		"sessions": out,
	})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	session, err := s.config.Sessions.Get(c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(SessionResponse{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
		Turns:     session.History(),
	})
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	if err := s.config.Sessions.Delete(c.Params("id")); err != nil {
		return s.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handlePostMessage answers one user message within a session.
func (s *Server) handlePostMessage(c *fiber.Ctx) error {
	session, err := s.config.Sessions.Get(c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	var req MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	ex, err := s.config.Orchestrator.Exchange(c.Context(), session, req.Message)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(MessageResponse{
		SessionID: session.ID,
		Reply:     ex.Answer.Text,
		Model:     ex.Model,
		Attempts:  ex.Attempts,
		Sources:   apisearch.Results(ex.Sources),
	})
}

// handleTranscript lists a session's persisted exchanges. Transcripts
// outlive in-memory sessions, so an unknown id yields an empty list.
func (s *Server) handleTranscript(c *fiber.Ctx) error {
	if s.config.Transcripts == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "transcript storage is not configured"})
	}

	id := c.Params("id")
	entries, err := s.config.Transcripts.List(c.Context(), id)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(TranscriptResponse{SessionID: id, Entries: entries, Count: len(entries)})
}

func indexStatus(snap *search.Snapshot) IndexStatus {
	if snap == nil || snap.Index == nil {
		return IndexStatus{}
	}
	meta := snap.Index.Meta()
	return IndexStatus{
		Ready:      true,
		Source:     string(snap.Source),
		Entries:    snap.Index.Len(),
		Dimensions: meta.Dimensions,
		Model:      meta.Model,
		BuiltAt:    meta.BuiltAt,
	}
}
