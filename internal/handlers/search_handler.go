package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

type SearchHandler struct {
	embedder services.Embedder
	index    services.CandidateIndex
	logger   *zap.Logger
}

// NewSearchHandler searches indexed candidates. Both embedder and index may be
// nil, in which case search is unavailable.
func NewSearchHandler(embedder services.Embedder, index services.CandidateIndex, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// HandleSearch handles GET /candidates/search?q=&limit=
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	if h.embedder == nil || h.index == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "candidate index is disabled")
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return errorResponse(c, fiber.StatusBadRequest, "q is required")
	}

	limit := c.QueryInt("limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	vector, err := h.embedder.Embed(c.UserContext(), query)
	if err != nil {
		h.logger.Error("failed to embed search query", zap.Error(err))
		return errorResponse(c, fiber.StatusBadGateway, "failed to embed query")
	}

	matches, err := h.index.SearchCandidates(c.UserContext(), vector, limit)
	if err != nil {
		h.logger.Error("candidate search failed", zap.Error(err))
		return errorResponse(c, fiber.StatusBadGateway, "candidate search failed")
	}

	if matches == nil {
		matches = []models.CandidateMatch{}
	}
	return c.JSON(models.CandidateSearchResponse{
		Query:   query,
		Matches: matches,
	})
}
