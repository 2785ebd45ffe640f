package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-core/internal/api/dto"
	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/service"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// ViewsHandler exposes saved-filter CRUD.
type ViewsHandler struct {
	views *service.ViewService
}

// NewViewsHandler returns a new handler instance.
func NewViewsHandler(views *service.ViewService) *ViewsHandler {
	return &ViewsHandler{views: views}
}

// List returns all saved views.
func (h *ViewsHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"filters": h.views.ListViews(c.UserContext())})
}

// Create validates and stores a saved view.
func (h *ViewsHandler) Create(c *fiber.Ctx) error {
	if _, err := requireActor(c); err != nil {
		return err
	}
	var payload dto.SavedViewPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	created, err := h.views.CreateView(c.UserContext(), domain.SavedView{
		Name:      payload.Name,
		Entity:    payload.Entity,
		Filters:   payload.Filters,
		Sort:      payload.Sort,
		IsDefault: payload.IsDefault,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Delete removes a saved view.
func (h *ViewsHandler) Delete(c *fiber.Ctx) error {
	if _, err := requireActor(c); err != nil {
		return err
	}
	if err := h.views.DeleteView(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
