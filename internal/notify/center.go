package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/events"
)

const subscriberBuffer = 64

// Handler receives live events.
type Handler func(events.Event)

// Subscription is the cancellation handle returned by Subscribe.
// Unsubscribe is idempotent; after it returns no further events are
// delivered, with no guarantee about events already in flight.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery and releases the subscriber.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Center is the notification broadcaster: a live pub/sub channel plus
// the persisted per-recipient feed. The feed write happens synchronously
// inside Emit; live delivery is fire-and-forget and never blocks the
// mutation path or the SLA scan.
type Center struct {
	mu     sync.Mutex
	subs   map[uint64]chan events.Event
	nextID uint64

	feed   Feed
	logger *zap.Logger

	Clock func() time.Time
}

// NewCenter constructs a center over the given feed backend.
func NewCenter(feed Feed, logger *zap.Logger) *Center {
	return &Center{
		subs:   make(map[uint64]chan events.Event),
		feed:   feed,
		logger: logger,
		Clock:  time.Now,
	}
}

// Subscribe registers a handler for every subsequently emitted event,
// delivered in emission order. Each subscriber gets its own queue; a
// subscriber that falls behind has events dropped rather than slowing
// the emitters down.
func (c *Center) Subscribe(handler Handler) *Subscription {
	ch := make(chan events.Event, subscriberBuffer)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.mu.Unlock()

	go func() {
		for event := range ch {
			handler(event)
		}
	}()

	return &Subscription{cancel: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if ch, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}}
}

// Emit persists the feed row derived from the event (zero or one per
// event) and fans the event out to live subscribers. Persistence gets
// one cheap retry; when it still fails the event is delivered anyway
// and the loss is logged as a degraded condition.
func (c *Center) Emit(ctx context.Context, event events.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = c.Clock()
	}

	if n := c.notificationFor(event); n != nil {
		if err := c.feed.Add(ctx, n); err != nil {
			if err = c.feed.Add(ctx, n); err != nil {
				c.logger.Warn("notification feed write failed",
					zap.String("event_id", event.ID),
					zap.String("type", string(event.Type)),
					zap.Error(err))
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		select {
		case ch <- event:
		default:
			c.logger.Warn("subscriber queue full; event dropped",
				zap.Uint64("subscriber", id),
				zap.String("event_id", event.ID))
		}
	}
}

// Feed exposes the persisted feed for read/mark operations.
func (c *Center) Feed() Feed {
	return c.feed
}

// notificationFor maps a domain event to its feed row. Events with no
// feed representation (priority and stage changes) return nil.
func (c *Center) notificationFor(event events.Event) *domain.CRMNotification {
	n := &domain.CRMNotification{
		ID:        uuid.NewString(),
		CreatedAt: event.Timestamp,
	}

	switch event.Type {
	case events.EventRequestCreated:
		payload, _ := event.Payload.(events.RequestCreatedPayload)
		n.Type = domain.NotifyNewRequest
		n.Title = "New request"
		n.Message = fmt.Sprintf("%s opened %q", payload.RequesterName, payload.Title)
	case events.EventReplyAdded:
		payload, _ := event.Payload.(events.ReplyAddedPayload)
		n.Type = domain.NotifyNewReply
		n.Title = "New reply"
		n.Message = fmt.Sprintf("%s replied: %s", payload.AuthorName, payload.BodyPreview)
	case events.EventSLABreach:
		payload, _ := event.Payload.(events.SLABreachPayload)
		n.Type = domain.NotifySLABreach
		n.Title = "SLA breached"
		n.Message = fmt.Sprintf("%q missed its %s deadline", payload.Title, payload.Priority)
	case events.EventEscalation:
		n.Type = domain.NotifyEscalation
		n.Title = "Request escalated"
		n.Message = fmt.Sprintf("request %s escalated to urgent", event.EntityID)
	case events.EventAssignment:
		payload, _ := event.Payload.(events.AssignmentPayload)
		n.Type = domain.NotifyAssignment
		n.Title = "Request assigned"
		n.Message = fmt.Sprintf("request %s assigned to %s", event.EntityID, payload.AssigneeName)
		n.UserID = payload.AssigneeID
	case events.EventStatusChanged:
		payload, _ := event.Payload.(events.StatusChangedPayload)
		n.Type = domain.NotifyStatusChange
		n.Title = "Status changed"
		n.Message = fmt.Sprintf("request %s moved from %s to %s", event.EntityID, payload.OldStatus, payload.NewStatus)
	default:
		return nil
	}
	return n
}
