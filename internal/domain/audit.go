package domain

import "time"

// AuditAction enumerates recorded operations.
type AuditAction string

const (
	ActionCreate   AuditAction = "create"
	ActionUpdate   AuditAction = "update"
	ActionDelete   AuditAction = "delete"
	ActionExport   AuditAction = "export"
	ActionView     AuditAction = "view"
	ActionAssign   AuditAction = "assign"
	ActionEscalate AuditAction = "escalate"
)

// AuditDiff captures the field-level change of one mutation. Changed lists
// exactly the top-level keys whose values differ between Before and After.
type AuditDiff struct {
	Before  map[string]any `json:"before,omitempty"`
	After   map[string]any `json:"after,omitempty"`
	Changed []string       `json:"changed"`
}

// AuditMetadata carries request-context attribution.
type AuditMetadata struct {
	Source    string `json:"source,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	IP        string `json:"ip,omitempty"`
}

// AuditLogEntry is an immutable audit trail entry. Entries are never
// edited or deleted once appended.
type AuditLogEntry struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	Action     AuditAction    `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Diff       *AuditDiff     `json:"diff,omitempty"`
	Metadata   *AuditMetadata `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
