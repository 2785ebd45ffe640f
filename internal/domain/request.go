package domain

import "time"

// RequestStatus enumerates lifecycle states for client requests.
type RequestStatus string

const (
	StatusNew             RequestStatus = "new"
	StatusOpen            RequestStatus = "open"
	StatusPendingCustomer RequestStatus = "pending-customer"
	StatusWaiting         RequestStatus = "waiting"
	StatusResolved        RequestStatus = "resolved"
	StatusClosed          RequestStatus = "closed"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s RequestStatus) bool {
	switch s {
	case StatusNew, StatusOpen, StatusPendingCustomer, StatusWaiting, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// RequestPriority enumerates SLA urgency.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityNormal RequestPriority = "normal"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p RequestPriority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// PriorityRank orders priorities for sorting; higher is more urgent.
func PriorityRank(p RequestPriority) int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// SLA tracks the deadline derived from a request's priority.
// Breached is monotonic under the periodic monitor; only a priority
// change that yields a future due date may clear it.
type SLA struct {
	DueAt    time.Time `json:"due_at"`
	Breached bool      `json:"breached"`
}

// Reply is one message on a request's thread.
type Reply struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Message    string    `json:"message"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// ClientRequest is the aggregate for CRM tickets.
type ClientRequest struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Status         RequestStatus   `json:"status"`
	Priority       RequestPriority `json:"priority"`
	RequesterName  string          `json:"requester_name"`
	RequesterEmail string          `json:"requester_email"`
	AssigneeID     *string         `json:"assignee_id,omitempty"`
	AssigneeName   *string         `json:"assignee_name,omitempty"`
	Tags           []string        `json:"tags"`
	SLA            *SLA            `json:"sla,omitempty"`
	Replies        []Reply         `json:"replies"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so readers never observe a half-mutated request.
func (r *ClientRequest) Clone() *ClientRequest {
	cp := *r
	if r.AssigneeID != nil {
		id := *r.AssigneeID
		cp.AssigneeID = &id
	}
	if r.AssigneeName != nil {
		name := *r.AssigneeName
		cp.AssigneeName = &name
	}
	if r.SLA != nil {
		sla := *r.SLA
		cp.SLA = &sla
	}
	cp.Tags = append([]string(nil), r.Tags...)
	cp.Replies = append([]Reply(nil), r.Replies...)
	return &cp
}

// HasTag reports whether the tag is present.
func (r *ClientRequest) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
