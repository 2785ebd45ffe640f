package dto

import (
	"github.com/spec-kit/crm-core/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// LoginResponse payload.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// CreateRequestPayload describes client request creation.
type CreateRequestPayload struct {
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Priority       domain.RequestPriority `json:"priority"`
	RequesterName  string                 `json:"requester_name"`
	RequesterEmail string                 `json:"requester_email"`
	Tags           []string               `json:"tags"`
}

// AssignPayload payload.
type AssignPayload struct {
	AssigneeID   string `json:"assignee_id"`
	AssigneeName string `json:"assignee_name"`
}

// BulkAssignPayload payload.
type BulkAssignPayload struct {
	RequestIDs   []string `json:"request_ids"`
	AssigneeID   string   `json:"assignee_id"`
	AssigneeName string   `json:"assignee_name"`
}

// BulkAssignResponse reports per-request outcomes.
type BulkAssignResponse struct {
	Assigned []string          `json:"assigned"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// StatusPayload payload.
type StatusPayload struct {
	Status domain.RequestStatus `json:"status"`
}

// PriorityPayload payload.
type PriorityPayload struct {
	Priority domain.RequestPriority `json:"priority"`
}

// EscalatePayload payload.
type EscalatePayload struct {
	Reason string `json:"reason"`
}

// TagsPayload payload.
type TagsPayload struct {
	Tags []string `json:"tags"`
}

// ReplyPayload payload.
type ReplyPayload struct {
	Message  string `json:"message"`
	Internal bool   `json:"internal"`
}

// StagePayload payload for deal stage moves.
type StagePayload struct {
	StageID string `json:"stageId"`
}

// CreateDealPayload payload.
type CreateDealPayload struct {
	Name    string `json:"name"`
	StageID string `json:"stageId"`
}
