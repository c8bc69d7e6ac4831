package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/papercomputeco/wikiart/api/search"
)

type searchParams struct {
	Query string `query:"query"`
	TopK  *int   `query:"top_k"`
}

// handleSearchEndpoint serves GET /v1/search?query=...&top_k=N. top_k is
// optional and must lie in [1, apisearch.MaxTopK].
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	var params searchParams
	if err := c.QueryParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "top_k must be a positive integer"})
	}

	query := strings.TrimSpace(params.Query)
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter is required"})
	}

	topK := apisearch.DefaultTopK
	if params.TopK != nil {
		topK = *params.TopK
		if topK < 1 || topK > apisearch.MaxTopK {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: fmt.Sprintf("top_k must be between 1 and %d", apisearch.MaxTopK),
			})
		}
	}

	output, err := apisearch.Search(c.Context(), s.config.Searcher, query, topK, s.logger)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(output)
}
