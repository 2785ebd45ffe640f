package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-core/internal/audit"
	"github.com/spec-kit/crm-core/internal/events"
	"github.com/spec-kit/crm-core/internal/notify"
	"github.com/spec-kit/crm-core/internal/store"
)

type eventSink struct {
	mu   sync.Mutex
	seen []events.Event
}

func (s *eventSink) handle(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, e)
}

func (s *eventSink) events() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.seen...)
}

func newDealFixture(t *testing.T) (*DealService, *audit.Recorder, *eventSink) {
	t.Helper()
	logger := zap.NewNop()
	recorder := audit.NewRecorder(audit.NewMemoryLog(), logger)
	center := notify.NewCenter(notify.NewMemoryFeed(), logger)

	sink := &eventSink{}
	sub := center.Subscribe(sink.handle)
	t.Cleanup(sub.Unsubscribe)

	svc := NewDealService(store.NewDealStore(), recorder, center)
	return svc, recorder, sink
}

func TestSetStageRecordsAndEmits(t *testing.T) {
	svc, recorder, sink := newDealFixture(t)
	ctx := context.Background()

	deal, err := svc.Create(ctx, testActor, "Acme renewal", "qualified")
	require.NoError(t, err)

	updated, err := svc.SetStage(ctx, testActor, deal.ID, "negotiation")
	require.NoError(t, err)
	assert.Equal(t, "negotiation", updated.StageID)

	page, err := recorder.List(ctx, EntityTypeDeal, deal.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Logs, 2) // create + stage change
	assert.Equal(t, []string{"stageId"}, page.Logs[0].Diff.Changed)

	require.Eventually(t, func() bool {
		return len(sink.events()) == 1
	}, time.Second, 10*time.Millisecond)
	evt := sink.events()[0]
	assert.Equal(t, events.EventStageChanged, evt.Type)
	payload, ok := evt.Payload.(events.StageChangedPayload)
	require.True(t, ok)
	assert.Equal(t, "qualified", payload.OldStageID)
	assert.Equal(t, "negotiation", payload.NewStageID)
}

func TestSetStageSameStageIsPureNoOp(t *testing.T) {
	svc, recorder, sink := newDealFixture(t)
	ctx := context.Background()

	deal, err := svc.Create(ctx, testActor, "Acme renewal", "qualified")
	require.NoError(t, err)

	updated, err := svc.SetStage(ctx, testActor, deal.ID, "qualified")
	require.NoError(t, err)
	assert.Equal(t, "qualified", updated.StageID)
	assert.Equal(t, deal.UpdatedAt, updated.UpdatedAt)

	page, err := recorder.List(ctx, EntityTypeDeal, deal.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Logs, 1) // only the create entry

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.events())
}

func TestSetStageValidation(t *testing.T) {
	svc, _, _ := newDealFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testActor, "  ", "qualified")
	require.Error(t, err)
	_, err = svc.Create(ctx, testActor, "Acme renewal", "")
	require.Error(t, err)

	deal, err := svc.Create(ctx, testActor, "Acme renewal", "qualified")
	require.NoError(t, err)
	_, err = svc.SetStage(ctx, testActor, deal.ID, "")
	require.Error(t, err)
}
