package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-core/internal/api/dto"
	"github.com/spec-kit/crm-core/internal/service"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// DealsHandler exposes pipeline deal operations.
type DealsHandler struct {
	deals *service.DealService
}

// NewDealsHandler returns a new handler instance.
func NewDealsHandler(deals *service.DealService) *DealsHandler {
	return &DealsHandler{deals: deals}
}

// Create registers a new deal.
func (h *DealsHandler) Create(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var payload dto.CreateDealPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	deal, err := h.deals.Create(c.UserContext(), actor, payload.Name, payload.StageID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(deal)
}

// List returns all deals.
func (h *DealsHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"deals": h.deals.List(c.UserContext())})
}

// SetStage moves a deal to a new pipeline stage; moving to the current
// stage is a pure no-op.
func (h *DealsHandler) SetStage(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var payload dto.StagePayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	deal, err := h.deals.SetStage(c.UserContext(), actor, c.Params("id"), payload.StageID)
	if err != nil {
		return err
	}
	return c.JSON(deal)
}
