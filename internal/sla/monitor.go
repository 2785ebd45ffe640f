package sla

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/events"
	"github.com/spec-kit/crm-core/internal/store"
)

// Emitter receives breach events from the monitor.
type Emitter interface {
	Emit(ctx context.Context, event events.Event)
}

// Monitor flips the breach flag on overdue requests. It owns its own
// timer, runs independently of any UI lifecycle, and touches nothing on
// a request besides sla.breached. The flag is strictly one-directional
// here; only a priority change may clear it.
type Monitor struct {
	requests *store.RequestStore
	emitter  Emitter
	logger   *zap.Logger
	interval time.Duration

	Clock func() time.Time
}

// NewMonitor builds a monitor scanning at the given interval.
func NewMonitor(requests *store.RequestStore, emitter Emitter, logger *zap.Logger, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{
		requests: requests,
		emitter:  emitter,
		logger:   logger,
		interval: interval,
		Clock:    time.Now,
	}
}

// Run ticks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("sla monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sla monitor stopped")
			return
		case <-ticker.C:
			m.Scan(ctx)
		}
	}
}

// Scan evaluates every tracked, unbreached request once. Idempotent: a
// request already breached is never re-evaluated, and a second scan
// before the due time does nothing. Per-request errors are logged and
// skipped so one bad request cannot halt the rest of the pass.
func (m *Monitor) Scan(ctx context.Context) {
	now := m.Clock()
	for _, snapshot := range m.requests.List() {
		if snapshot.SLA == nil || snapshot.SLA.Breached {
			continue
		}
		if snapshot.SLA.DueAt.After(now) {
			continue
		}
		if err := m.markBreached(ctx, snapshot.ID, now); err != nil {
			m.logger.Warn("sla scan: request skipped",
				zap.String("request_id", snapshot.ID),
				zap.Error(err))
		}
	}
}

func (m *Monitor) markBreached(ctx context.Context, id string, now time.Time) error {
	var payload events.SLABreachPayload
	updated, breachedNow, err := m.requests.Update(id, func(req *domain.ClientRequest) (bool, error) {
		// re-check under the entry lock; a concurrent priority change
		// may have moved the due date or set the flag already
		if req.SLA == nil || req.SLA.Breached || req.SLA.DueAt.After(now) {
			return false, nil
		}
		req.SLA.Breached = true
		payload = events.SLABreachPayload{
			Title:    req.Title,
			Priority: req.Priority,
			DueAt:    req.SLA.DueAt,
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	if !breachedNow {
		return nil
	}

	m.logger.Info("sla breached",
		zap.String("request_id", updated.ID),
		zap.Time("due_at", payload.DueAt))
	m.emitter.Emit(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSLABreach,
		EntityID:  updated.ID,
		Actor:     domain.Actor{ID: "system", Name: "SLA Monitor"},
		Timestamp: now,
		Payload:   payload,
	})
	return nil
}
