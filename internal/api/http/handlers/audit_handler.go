package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-core/internal/audit"
)

// AuditHandler exposes paginated audit reads.
type AuditHandler struct {
	recorder *audit.Recorder
}

// NewAuditHandler returns a new handler instance.
func NewAuditHandler(recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{recorder: recorder}
}

// List returns one page of audit entries for an entity, newest-first.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	result, err := h.recorder.List(c.UserContext(), c.Query("entityType"), c.Query("entityId"), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
