package sla

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/events"
	"github.com/spec-kit/crm-core/internal/store"
)

type captureEmitter struct {
	mu   sync.Mutex
	seen []events.Event
}

func (c *captureEmitter) Emit(_ context.Context, event events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, event)
}

func (c *captureEmitter) events() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Event(nil), c.seen...)
}

func seedRequest(t *testing.T, requests *store.RequestStore, id string, priority domain.RequestPriority, createdAt time.Time) {
	t.Helper()
	require.NoError(t, requests.Insert(&domain.ClientRequest{
		ID:        id,
		Title:     "Ticket " + id,
		Status:    domain.StatusOpen,
		Priority:  priority,
		SLA:       DefaultPolicy().Compute(priority, createdAt, createdAt),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}))
}

func TestScanFlagsOverdueRequests(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	requests := store.NewRequestStore()
	requests.Clock = func() time.Time { return t0 }
	seedRequest(t, requests, "urgent-1", domain.PriorityUrgent, t0)
	seedRequest(t, requests, "low-1", domain.PriorityLow, t0)

	emitter := &captureEmitter{}
	monitor := NewMonitor(requests, emitter, zap.NewNop(), time.Minute)
	monitor.Clock = func() time.Time { return t0.Add(5 * time.Hour) }

	monitor.Scan(context.Background())

	urgent, err := requests.Get("urgent-1")
	require.NoError(t, err)
	assert.True(t, urgent.SLA.Breached)

	low, err := requests.Get("low-1")
	require.NoError(t, err)
	assert.False(t, low.SLA.Breached, "one-week window still open")

	seen := emitter.events()
	require.Len(t, seen, 1)
	assert.Equal(t, events.EventSLABreach, seen[0].Type)
	assert.Equal(t, "urgent-1", seen[0].EntityID)
	assert.Equal(t, "system", seen[0].Actor.ID)
}

func TestScanIsIdempotent(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	requests := store.NewRequestStore()
	requests.Clock = func() time.Time { return t0 }
	seedRequest(t, requests, "urgent-1", domain.PriorityUrgent, t0)

	emitter := &captureEmitter{}
	monitor := NewMonitor(requests, emitter, zap.NewNop(), time.Minute)
	monitor.Clock = func() time.Time { return t0.Add(5 * time.Hour) }

	monitor.Scan(context.Background())
	afterFirst, err := requests.Get("urgent-1")
	require.NoError(t, err)

	monitor.Scan(context.Background())
	afterSecond, err := requests.Get("urgent-1")
	require.NoError(t, err)

	// second pass re-evaluates nothing: same snapshot, still one event
	assert.Equal(t, afterFirst.UpdatedAt, afterSecond.UpdatedAt)
	assert.Len(t, emitter.events(), 1)
}

func TestScanBeforeDueDoesNothing(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	requests := store.NewRequestStore()
	requests.Clock = func() time.Time { return t0 }
	seedRequest(t, requests, "urgent-1", domain.PriorityUrgent, t0)

	emitter := &captureEmitter{}
	monitor := NewMonitor(requests, emitter, zap.NewNop(), time.Minute)
	monitor.Clock = func() time.Time { return t0.Add(time.Hour) }

	monitor.Scan(context.Background())

	req, err := requests.Get("urgent-1")
	require.NoError(t, err)
	assert.False(t, req.SLA.Breached)
	assert.Empty(t, emitter.events())

	// UpdatedAt untouched: an inert scan leaves no trace on the request
	assert.Equal(t, t0, req.UpdatedAt)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	requests := store.NewRequestStore()
	monitor := NewMonitor(requests, &captureEmitter{}, zap.NewNop(), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
}
