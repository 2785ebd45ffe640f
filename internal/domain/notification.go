package domain

import "time"

// NotificationType enumerates feed entry kinds.
type NotificationType string

const (
	NotifyNewRequest   NotificationType = "new-request"
	NotifyNewReply     NotificationType = "new-reply"
	NotifySLABreach    NotificationType = "sla-breach"
	NotifyEscalation   NotificationType = "escalation"
	NotifyAssignment   NotificationType = "assignment"
	NotifyStatusChange NotificationType = "status-change"
)

// CRMNotification is one persisted feed entry. An empty UserID addresses
// the notification to all admins. Read moves one way: unread to read.
type CRMNotification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	UserID    string           `json:"user_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// VisibleTo reports whether the notification appears in userID's feed.
func (n *CRMNotification) VisibleTo(userID string) bool {
	return n.UserID == "" || n.UserID == userID
}
