package events

import (
	"time"

	"github.com/spec-kit/crm-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated  EventType = "request_created"
	EventReplyAdded      EventType = "reply_added"
	EventSLABreach       EventType = "sla_breach"
	EventEscalation      EventType = "escalation"
	EventAssignment      EventType = "assignment"
	EventStatusChanged   EventType = "status_changed"
	EventPriorityChanged EventType = "priority_changed"
	EventStageChanged    EventType = "stage_changed"
)

// Event represents a domain event emitted by the request store.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	EntityID  string       `json:"entity_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Title         string                 `json:"title"`
	Priority      domain.RequestPriority `json:"priority"`
	RequesterName string                 `json:"requester_name"`
}

// ReplyAddedPayload payload.
type ReplyAddedPayload struct {
	ReplyID     string `json:"reply_id"`
	AuthorName  string `json:"author_name"`
	IsInternal  bool   `json:"is_internal"`
	BodyPreview string `json:"body_preview"`
}

// SLABreachPayload payload.
type SLABreachPayload struct {
	Title    string                 `json:"title"`
	Priority domain.RequestPriority `json:"priority"`
	DueAt    time.Time              `json:"due_at"`
}

// EscalationPayload payload.
type EscalationPayload struct {
	OldPriority domain.RequestPriority `json:"old_priority"`
	Reason      string                 `json:"reason,omitempty"`
}

// AssignmentPayload payload.
type AssignmentPayload struct {
	AssigneeID   string `json:"assignee_id"`
	AssigneeName string `json:"assignee_name"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// PriorityChangedPayload payload.
type PriorityChangedPayload struct {
	OldPriority domain.RequestPriority `json:"old_priority"`
	NewPriority domain.RequestPriority `json:"new_priority"`
}

// StageChangedPayload payload.
type StageChangedPayload struct {
	OldStageID string `json:"old_stage_id"`
	NewStageID string `json:"new_stage_id"`
}
