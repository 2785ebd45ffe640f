package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-core/internal/audit"
	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/events"
	"github.com/spec-kit/crm-core/internal/notify"
	"github.com/spec-kit/crm-core/internal/sla"
	"github.com/spec-kit/crm-core/internal/store"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// EntityTypeRequest tags audit entries for client requests.
const EntityTypeRequest = "client_request"

// RequestService coordinates request mutations. Every applied mutation
// commits to the store first, then hands a diff to the audit recorder,
// then derives zero or one event for the broadcaster, in that order.
// Audit and notification failures degrade; they never roll back the
// committed mutation.
type RequestService struct {
	requests *store.RequestStore
	recorder *audit.Recorder
	center   *notify.Center
	policy   *sla.Policy
	logger   *zap.Logger

	Clock func() time.Time
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	Requests *store.RequestStore
	Recorder *audit.Recorder
	Center   *notify.Center
	Policy   *sla.Policy
	Logger   *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests: deps.Requests,
		recorder: deps.Recorder,
		center:   deps.Center,
		policy:   deps.Policy,
		logger:   deps.Logger,
		Clock:    time.Now,
	}
}

// CreateInput describes request creation payload.
type CreateInput struct {
	Title          string
	Description    string
	Priority       domain.RequestPriority
	RequesterName  string
	RequesterEmail string
	Tags           []string
}

// Create registers a new client request. The SLA window anchors on the
// creation time per the priority policy.
func (s *RequestService) Create(ctx context.Context, actor domain.Actor, input CreateInput) (*domain.ClientRequest, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(priority)})
	}

	now := s.Clock()
	req := &domain.ClientRequest{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.StatusNew,
		Priority:       priority,
		RequesterName:  strings.TrimSpace(input.RequesterName),
		RequesterEmail: strings.TrimSpace(input.RequesterEmail),
		Tags:           dedupeTags(input.Tags),
		SLA:            s.policy.Compute(priority, now, now),
		Replies:        []domain.Reply{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.requests.Insert(req); err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.ActionCreate, req.ID, nil, map[string]any{
		"title":    req.Title,
		"status":   req.Status,
		"priority": req.Priority,
	}, nil)
	s.center.Emit(ctx, s.event(events.EventRequestCreated, req.ID, actor, events.RequestCreatedPayload{
		Title:         req.Title,
		Priority:      req.Priority,
		RequesterName: req.RequesterName,
	}))
	return req, nil
}

// Get returns a snapshot of one request.
func (s *RequestService) Get(_ context.Context, id string) (*domain.ClientRequest, error) {
	return s.requests.Get(id)
}

// List returns snapshots of all requests.
func (s *RequestService) List(_ context.Context) []domain.ClientRequest {
	return s.requests.List()
}

// SetAssignee assigns the request. Deliberately no no-op guard:
// re-assigning to the same person still records a mutation, since the
// audit trail must reflect the act of re-confirming.
func (s *RequestService) SetAssignee(ctx context.Context, actor domain.Actor, id, assigneeID, assigneeName string) (*domain.ClientRequest, error) {
	var before map[string]any
	updated, _, err := s.requests.Update(id, func(req *domain.ClientRequest) (bool, error) {
		before = map[string]any{
			"assigneeId":   strOrNil(req.AssigneeID),
			"assigneeName": strOrNil(req.AssigneeName),
		}
		req.AssigneeID = &assigneeID
		req.AssigneeName = &assigneeName
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.ActionAssign, id, before, map[string]any{
		"assigneeId":   assigneeID,
		"assigneeName": assigneeName,
	}, nil)
	s.center.Emit(ctx, s.event(events.EventAssignment, id, actor, events.AssignmentPayload{
		AssigneeID:   assigneeID,
		AssigneeName: assigneeName,
	}))
	return updated, nil
}

// BulkAssignResult reports one ticket's outcome in a bulk assignment.
type BulkAssignResult struct {
	RequestID string `json:"request_id"`
	Err       error  `json:"-"`
}

// BulkAssign assigns each listed request. Per-request failures are
// collected; one missing id does not abort the rest. Each success
// produces its own audit entry and assignment event.
func (s *RequestService) BulkAssign(ctx context.Context, actor domain.Actor, ids []string, assigneeID, assigneeName string) []BulkAssignResult {
	results := make([]BulkAssignResult, 0, len(ids))
	for _, id := range ids {
		_, err := s.SetAssignee(ctx, actor, id, assigneeID, assigneeName)
		results = append(results, BulkAssignResult{RequestID: id, Err: err})
	}
	return results
}

// SetStatus moves the request through its lifecycle. Closed is terminal
// here: any target, including closed itself, fails with
// InvalidTransition. Reopen is the separate privileged path out.
func (s *RequestService) SetStatus(ctx context.Context, actor domain.Actor, id string, status domain.RequestStatus) (*domain.ClientRequest, error) {
	if !domain.ValidStatus(status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(status)})
	}

	var oldStatus domain.RequestStatus
	updated, _, err := s.requests.Update(id, func(req *domain.ClientRequest) (bool, error) {
		if req.Status == domain.StatusClosed {
			return false, apperrors.NewInvalidTransition("request is closed", map[string]any{"id": id})
		}
		oldStatus = req.Status
		req.Status = status
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.ActionUpdate, id,
		map[string]any{"status": oldStatus},
		map[string]any{"status": status}, nil)
	s.center.Emit(ctx, s.event(events.EventStatusChanged, id, actor, events.StatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: status,
	}))
	return updated, nil
}

// Reopen is the explicit, audited transition out of closed.
func (s *RequestService) Reopen(ctx context.Context, actor domain.Actor, id string) (*domain.ClientRequest, error) {
	var oldStatus domain.RequestStatus
	updated, _, err := s.requests.Update(id, func(req *domain.ClientRequest) (bool, error) {
		if req.Status != domain.StatusClosed {
			return false, apperrors.NewInvalidTransition("only closed requests can be reopened", map[string]any{"id": id, "status": string(req.Status)})
		}
		oldStatus = req.Status
		req.Status = domain.StatusOpen
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.ActionUpdate, id,
		map[string]any{"status": oldStatus},
		map[string]any{"status": domain.StatusOpen},
		&domain.AuditMetadata{Source: "reopen"})
	s.center.Emit(ctx, s.event(events.EventStatusChanged, id, actor, events.StatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: domain.StatusOpen,
	}))
	return updated, nil
}

// SetPriority changes priority and recomputes the SLA deadline from the
// creation time. A past due date breaches immediately rather than
// waiting for the next monitor tick; a future one clears the flag.
func (s *RequestService) SetPriority(ctx context.Context, actor domain.Actor, id string, priority domain.RequestPriority) (*domain.ClientRequest, error) {
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(priority)})
	}
	return s.applyPriority(ctx, actor, id, priority, domain.ActionUpdate, "")
}

// Escalate raises the request to urgent, recording the escalate action
// and emitting an escalation event.
func (s *RequestService) Escalate(ctx context.Context, actor domain.Actor, id, reason string) (*domain.ClientRequest, error) {
	return s.applyPriority(ctx, actor, id, domain.PriorityUrgent, domain.ActionEscalate, reason)
}

func (s *RequestService) applyPriority(ctx context.Context, actor domain.Actor, id string, priority domain.RequestPriority, action domain.AuditAction, reason string) (*domain.ClientRequest, error) {
	now := s.Clock()
	var before map[string]any
	var oldPriority domain.RequestPriority
	updated, _, err := s.requests.Update(id, func(req *domain.ClientRequest) (bool, error) {
		oldPriority = req.Priority
		before = map[string]any{"priority": req.Priority, "sla": req.SLA}
		req.Priority = priority
		req.SLA = s.policy.Compute(priority, req.CreatedAt, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	var metadata *domain.AuditMetadata
	if reason != "" {
		metadata = &domain.AuditMetadata{Source: reason}
	}
	s.record(ctx, actor, action, id, before,
		map[string]any{"priority": updated.Priority, "sla": updated.SLA}, metadata)

	if action == domain.ActionEscalate {
		s.center.Emit(ctx, s.event(events.EventEscalation, id, actor, events.EscalationPayload{
			OldPriority: oldPriority,
			Reason:      reason,
		}))
	} else {
		s.center.Emit(ctx, s.event(events.EventPriorityChanged, id, actor, events.PriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: priority,
		}))
	}
	return updated, nil
}

// AddTags unions the given tags into the request's tag set. Tags already
// present are silently ignored; a call that adds nothing still records
// a mutation with an empty changed list.
func (s *RequestService) AddTags(ctx context.Context, actor domain.Actor, id string, tags []string) (*domain.ClientRequest, error) {
	var before, after []string
	updated, _, err := s.requests.Update(id, func(req *domain.ClientRequest) (bool, error) {
		before = append([]string(nil), req.Tags...)
		for _, tag := range dedupeTags(tags) {
			if !req.HasTag(tag) {
				req.Tags = append(req.Tags, tag)
			}
		}
		after = append([]string(nil), req.Tags...)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.ActionUpdate, id,
		map[string]any{"tags": before},
		map[string]any{"tags": after}, nil)
	return updated, nil
}

// RemoveTag drops a tag. Removing an absent tag succeeds and leaves an
// audit entry whose diff shows no change.
func (s *RequestService) RemoveTag(ctx context.Context, actor domain.Actor, id, tag string) (*domain.ClientRequest, error) {
	var before, after []string
	updated, _, err := s.requests.Update(id, func(req *domain.ClientRequest) (bool, error) {
		before = append([]string(nil), req.Tags...)
		for i, existing := range req.Tags {
			if existing == tag {
				req.Tags = append(req.Tags[:i], req.Tags[i+1:]...)
				break
			}
		}
		after = append([]string(nil), req.Tags...)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.ActionUpdate, id,
		map[string]any{"tags": before},
		map[string]any{"tags": after}, nil)
	return updated, nil
}

// AddReply appends a customer-visible reply.
func (s *RequestService) AddReply(ctx context.Context, actor domain.Actor, id, message string) (*domain.ClientRequest, error) {
	return s.appendReply(ctx, actor, id, message, false)
}

// AddInternalNote appends a staff-only note.
func (s *RequestService) AddInternalNote(ctx context.Context, actor domain.Actor, id, message string) (*domain.ClientRequest, error) {
	return s.appendReply(ctx, actor, id, message, true)
}

func (s *RequestService) appendReply(ctx context.Context, actor domain.Actor, id, message string, internal bool) (*domain.ClientRequest, error) {
	body := strings.TrimSpace(message)
	if body == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}

	reply := domain.Reply{
		ID:         uuid.NewString(),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Message:    body,
		IsInternal: internal,
		CreatedAt:  s.Clock(),
	}
	var beforeCount int
	updated, _, err := s.requests.Update(id, func(req *domain.ClientRequest) (bool, error) {
		beforeCount = len(req.Replies)
		req.Replies = append(req.Replies, reply)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.ActionUpdate, id,
		map[string]any{"replies": beforeCount},
		map[string]any{"replies": beforeCount + 1}, nil)
	s.center.Emit(ctx, s.event(events.EventReplyAdded, id, actor, events.ReplyAddedPayload{
		ReplyID:     reply.ID,
		AuthorName:  reply.AuthorName,
		IsInternal:  internal,
		BodyPreview: stringPreview(body, 120),
	}))
	return updated, nil
}

// record hands the diff to the audit recorder. Append failures are
// already logged there as degraded; the mutation stands regardless.
func (s *RequestService) record(ctx context.Context, actor domain.Actor, action domain.AuditAction, entityID string, before, after map[string]any, metadata *domain.AuditMetadata) {
	_, _ = s.recorder.Record(ctx, actor.ID, action, EntityTypeRequest, entityID, before, after, metadata)
}

func (s *RequestService) event(eventType events.EventType, entityID string, actor domain.Actor, payload any) events.Event {
	return events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntityID:  entityID,
		Actor:     actor,
		Timestamp: s.Clock(),
		Payload:   payload,
	}
}

func dedupeTags(tags []string) []string {
	seen := map[string]struct{}{}
	result := []string{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
