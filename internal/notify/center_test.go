package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/events"
)

type recordingHandler struct {
	mu   sync.Mutex
	seen []events.Event
}

func (h *recordingHandler) handle(e events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, e)
}

func (h *recordingHandler) events() []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.Event(nil), h.seen...)
}

type brokenFeed struct {
	Feed
	attempts int
}

func (f *brokenFeed) Add(context.Context, *domain.CRMNotification) error {
	f.attempts++
	return errors.New("feed unavailable")
}

func statusEvent(id string) events.Event {
	return events.Event{
		ID:       id,
		Type:     events.EventStatusChanged,
		EntityID: "r1",
		Actor:    domain.Actor{ID: "admin", Name: "Administrator"},
		Payload:  events.StatusChangedPayload{OldStatus: domain.StatusNew, NewStatus: domain.StatusOpen},
	}
}

func TestSubscribersReceiveEventsInOrder(t *testing.T) {
	center := NewCenter(NewMemoryFeed(), zap.NewNop())
	handler := &recordingHandler{}
	sub := center.Subscribe(handler.handle)
	defer sub.Unsubscribe()

	ctx := context.Background()
	center.Emit(ctx, statusEvent("e1"))
	center.Emit(ctx, statusEvent("e2"))
	center.Emit(ctx, statusEvent("e3"))

	require.Eventually(t, func() bool {
		return len(handler.events()) == 3
	}, time.Second, 5*time.Millisecond)

	seen := handler.events()
	assert.Equal(t, "e1", seen[0].ID)
	assert.Equal(t, "e2", seen[1].ID)
	assert.Equal(t, "e3", seen[2].ID)
}

func TestUnsubscribeStopsDeliveryAndIsIdempotent(t *testing.T) {
	center := NewCenter(NewMemoryFeed(), zap.NewNop())
	handler := &recordingHandler{}
	sub := center.Subscribe(handler.handle)

	ctx := context.Background()
	center.Emit(ctx, statusEvent("e1"))
	require.Eventually(t, func() bool {
		return len(handler.events()) == 1
	}, time.Second, 5*time.Millisecond)

	sub.Unsubscribe()
	sub.Unsubscribe() // second call is a no-op, not a panic

	center.Emit(ctx, statusEvent("e2"))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, handler.events(), 1)
}

func TestEmitPersistsFeedRow(t *testing.T) {
	feed := NewMemoryFeed()
	center := NewCenter(feed, zap.NewNop())
	ctx := context.Background()

	center.Emit(ctx, events.Event{
		Type:     events.EventSLABreach,
		EntityID: "r1",
		Actor:    domain.Actor{ID: "system", Name: "SLA Monitor"},
		Payload:  events.SLABreachPayload{Title: "Server down", Priority: domain.PriorityUrgent},
	})

	rows, err := feed.ListForUser(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.NotifySLABreach, rows[0].Type)
	assert.Empty(t, rows[0].UserID) // broadcast
}

func TestPriorityChangeProducesNoFeedRow(t *testing.T) {
	feed := NewMemoryFeed()
	center := NewCenter(feed, zap.NewNop())
	ctx := context.Background()

	center.Emit(ctx, events.Event{
		Type:     events.EventPriorityChanged,
		EntityID: "r1",
		Payload:  events.PriorityChangedPayload{OldPriority: domain.PriorityLow, NewPriority: domain.PriorityHigh},
	})
	center.Emit(ctx, events.Event{
		Type:     events.EventStageChanged,
		EntityID: "d1",
		Payload:  events.StageChangedPayload{OldStageID: "a", NewStageID: "b"},
	})

	rows, err := feed.ListForUser(ctx, "admin")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAssignmentTargetsTheAssignee(t *testing.T) {
	feed := NewMemoryFeed()
	center := NewCenter(feed, zap.NewNop())
	ctx := context.Background()

	center.Emit(ctx, events.Event{
		Type:     events.EventAssignment,
		EntityID: "r1",
		Payload:  events.AssignmentPayload{AssigneeID: "u1", AssigneeName: "Avery"},
	})

	assigneeRows, err := feed.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, assigneeRows, 1)
	assert.Equal(t, "u1", assigneeRows[0].UserID)

	otherRows, err := feed.ListForUser(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, otherRows)
}

func TestEmitRetriesThenDegradesOnFeedFailure(t *testing.T) {
	feed := &brokenFeed{}
	center := NewCenter(feed, zap.NewNop())
	handler := &recordingHandler{}
	sub := center.Subscribe(handler.handle)
	defer sub.Unsubscribe()

	center.Emit(context.Background(), events.Event{
		Type:     events.EventSLABreach,
		EntityID: "r1",
		Payload:  events.SLABreachPayload{Title: "Server down"},
	})

	assert.Equal(t, 2, feed.attempts) // one retry, then give up

	// live delivery still happens despite the lost feed row
	require.Eventually(t, func() bool {
		return len(handler.events()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEmitFillsMissingIDAndTimestamp(t *testing.T) {
	center := NewCenter(NewMemoryFeed(), zap.NewNop())
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	center.Clock = func() time.Time { return now }

	handler := &recordingHandler{}
	sub := center.Subscribe(handler.handle)
	defer sub.Unsubscribe()

	center.Emit(context.Background(), events.Event{Type: events.EventEscalation, EntityID: "r1"})

	require.Eventually(t, func() bool {
		return len(handler.events()) == 1
	}, time.Second, 5*time.Millisecond)
	evt := handler.events()[0]
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, now, evt.Timestamp)
}
