package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/wikiart/pkg/catalog"
	"github.com/papercomputeco/wikiart/pkg/chat"
	"github.com/papercomputeco/wikiart/pkg/embeddings"
	"github.com/papercomputeco/wikiart/pkg/llm"
	"github.com/papercomputeco/wikiart/pkg/search"
	"github.com/papercomputeco/wikiart/pkg/vector"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrInvalidInput),
		errors.Is(err, search.ErrInvalidTopK),
		errors.Is(err, embeddings.ErrEmptyText):
		return fiber.StatusBadRequest
	case errors.Is(err, chat.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, chat.ErrSessionBusy):
		return fiber.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, llm.ErrGeneration), errors.Is(err, embeddings.ErrEncoding):
		return fiber.StatusBadGateway
	case errors.Is(err, catalog.ErrCatalog), errors.Is(err, vector.ErrIndexLoad):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}
