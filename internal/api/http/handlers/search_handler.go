package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-core/internal/service"
)

// SearchHandler exposes cross-entity text search.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler returns a new handler instance.
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search matches the query across the requested entity types. Queries
// shorter than two characters return empty results without touching the
// stores.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	entities := splitCSV(c.Query("entities"))
	return c.JSON(h.search.Search(c.UserContext(), c.Query("q"), entities))
}
