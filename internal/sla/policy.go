package sla

import (
	"time"

	"github.com/spec-kit/crm-core/internal/config"
	"github.com/spec-kit/crm-core/internal/domain"
)

// Policy maps a request's priority to its due window. Windows anchor on
// the request's creation time, not on when the priority was set.
type Policy struct {
	windows map[domain.RequestPriority]time.Duration
}

// NewPolicy builds the policy from configuration.
func NewPolicy(cfg config.SLAConfig) *Policy {
	return &Policy{
		windows: map[domain.RequestPriority]time.Duration{
			domain.PriorityUrgent: time.Duration(cfg.UrgentHours) * time.Hour,
			domain.PriorityHigh:   time.Duration(cfg.HighHours) * time.Hour,
			domain.PriorityNormal: time.Duration(cfg.NormalHours) * time.Hour,
			domain.PriorityLow:    time.Duration(cfg.LowHours) * time.Hour,
		},
	}
}

// DefaultPolicy returns the standard windows: urgent 4h, high 24h,
// normal 72h, low one week.
func DefaultPolicy() *Policy {
	return NewPolicy(config.SLAConfig{
		UrgentHours: 4,
		HighHours:   24,
		NormalHours: 72,
		LowHours:    168,
	})
}

// DueAt computes the deadline for a priority given the creation time.
// Deterministic: the same (priority, createdAt) always yields the same
// due date.
func (p *Policy) DueAt(priority domain.RequestPriority, createdAt time.Time) time.Time {
	window, ok := p.windows[priority]
	if !ok {
		window = p.windows[domain.PriorityNormal]
	}
	return createdAt.Add(window)
}

// Compute returns a fresh SLA for the priority. Breached is set
// immediately when the due date is already past.
func (p *Policy) Compute(priority domain.RequestPriority, createdAt, now time.Time) *domain.SLA {
	dueAt := p.DueAt(priority, createdAt)
	return &domain.SLA{
		DueAt:    dueAt,
		Breached: !dueAt.After(now),
	}
}
