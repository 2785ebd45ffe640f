package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-core/internal/api/dto"
	"github.com/spec-kit/crm-core/internal/auth"
	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/service"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// RequestsHandler exposes client request operations.
type RequestsHandler struct {
	requests *service.RequestService
	views    *service.ViewService
}

// NewRequestsHandler returns a new handler instance.
func NewRequestsHandler(requests *service.RequestService, views *service.ViewService) *RequestsHandler {
	return &RequestsHandler{requests: requests, views: views}
}

// Create registers a new request.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var payload dto.CreateRequestPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	req, err := h.requests.Create(c.UserContext(), actor, service.CreateInput{
		Title:          payload.Title,
		Description:    payload.Description,
		Priority:       payload.Priority,
		RequesterName:  payload.RequesterName,
		RequesterEmail: payload.RequesterEmail,
		Tags:           payload.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// List evaluates the active view plus ad-hoc overrides against the
// current snapshot.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	input := service.EvaluateInput{
		ViewID: c.Query("viewId"),
		Search: c.Query("q"),
	}

	if field := c.Query("sortField"); field != "" {
		direction := domain.SortDirection(c.Query("sortDir", string(domain.SortDesc)))
		input.SortOverride = &domain.Sort{Field: field, Direction: direction}
	}

	input.AdHocFilters, input.HasAdHoc = adHocFilters(c)

	result, err := h.views.Evaluate(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"requests": result, "total": len(result)})
}

// Get returns one request with its reply thread.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	req, err := h.requests.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(req)
}

// SetAssignee assigns the request.
func (h *RequestsHandler) SetAssignee(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var payload dto.AssignPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if payload.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}

	req, err := h.requests.SetAssignee(c.UserContext(), actor, c.Params("id"), payload.AssigneeID, payload.AssigneeName)
	if err != nil {
		return err
	}
	return c.JSON(req)
}

// BulkAssign assigns several requests in one call.
func (h *RequestsHandler) BulkAssign(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var payload dto.BulkAssignPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if len(payload.RequestIDs) == 0 || payload.AssigneeID == "" {
		return apperrors.NewValidationError("request_ids and assignee_id required", nil)
	}

	results := h.requests.BulkAssign(c.UserContext(), actor, payload.RequestIDs, payload.AssigneeID, payload.AssigneeName)
	response := dto.BulkAssignResponse{Assigned: []string{}}
	for _, result := range results {
		if result.Err != nil {
			if response.Failed == nil {
				response.Failed = map[string]string{}
			}
			response.Failed[result.RequestID] = result.Err.Error()
			continue
		}
		response.Assigned = append(response.Assigned, result.RequestID)
	}
	return c.JSON(response)
}

// SetStatus moves the request through its lifecycle.
func (h *RequestsHandler) SetStatus(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var payload dto.StatusPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	req, err := h.requests.SetStatus(c.UserContext(), actor, c.Params("id"), payload.Status)
	if err != nil {
		return err
	}
	return c.JSON(req)
}

// Reopen is the privileged transition out of closed.
func (h *RequestsHandler) Reopen(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	req, err := h.requests.Reopen(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(req)
}

// SetPriority changes priority and recomputes the SLA deadline.
func (h *RequestsHandler) SetPriority(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var payload dto.PriorityPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	req, err := h.requests.SetPriority(c.UserContext(), actor, c.Params("id"), payload.Priority)
	if err != nil {
		return err
	}
	return c.JSON(req)
}

// Escalate raises the request to urgent.
func (h *RequestsHandler) Escalate(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var payload dto.EscalatePayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	req, err := h.requests.Escalate(c.UserContext(), actor, c.Params("id"), payload.Reason)
	if err != nil {
		return err
	}
	return c.JSON(req)
}

// AddTags unions tags into the request.
func (h *RequestsHandler) AddTags(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var payload dto.TagsPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	req, err := h.requests.AddTags(c.UserContext(), actor, c.Params("id"), payload.Tags)
	if err != nil {
		return err
	}
	return c.JSON(req)
}

// RemoveTag drops one tag.
func (h *RequestsHandler) RemoveTag(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	req, err := h.requests.RemoveTag(c.UserContext(), actor, c.Params("id"), c.Params("tag"))
	if err != nil {
		return err
	}
	return c.JSON(req)
}

// AddReply appends a reply or internal note.
func (h *RequestsHandler) AddReply(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var payload dto.ReplyPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	var req *domain.ClientRequest
	if payload.Internal {
		req, err = h.requests.AddInternalNote(c.UserContext(), actor, c.Params("id"), payload.Message)
	} else {
		req, err = h.requests.AddReply(c.UserContext(), actor, c.Params("id"), payload.Message)
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// adHocFilters builds the override filter set from query params. Any
// present param replaces the saved view's filters for this evaluation.
func adHocFilters(c *fiber.Ctx) ([]domain.Filter, bool) {
	filters := []domain.Filter{}
	for param, field := range map[string]string{
		"status":     "status",
		"priority":   "priority",
		"assigneeId": "assigneeId",
		"tag":        "tags",
		"breached":   "breached",
	} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		values := splitCSV(raw)
		if len(values) == 1 {
			filters = append(filters, domain.Filter{Field: field, Kind: domain.FilterEquals, Value: values[0]})
		} else {
			filters = append(filters, domain.Filter{Field: field, Kind: domain.FilterIn, Values: values})
		}
	}
	return filters, len(filters) > 0
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func requireActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}
