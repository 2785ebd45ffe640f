package dto

import (
	"github.com/spec-kit/crm-core/internal/domain"
)

// SavedViewPayload describes saved-view creation.
type SavedViewPayload struct {
	Name      string          `json:"name"`
	Entity    string          `json:"entity"`
	Filters   []domain.Filter `json:"filters"`
	Sort      domain.Sort     `json:"sort"`
	IsDefault bool            `json:"is_default"`
}

// HealthSummary is the aggregated health report.
type HealthSummary struct {
	Uptime    string    `json:"uptime"`
	LatencyMs int64     `json:"latencyMs"`
	DB        DBHealth  `json:"db"`
	API       APIHealth `json:"api"`
	Timestamp string    `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// DBHealth reports the audit-log backend.
type DBHealth struct {
	OK           bool   `json:"ok"`
	ResponseTime *int64 `json:"responseTime,omitempty"`
}

// APIHealth reports rolling request statistics.
type APIHealth struct {
	OK              bool    `json:"ok"`
	ErrorRate       float64 `json:"errorRate"`
	AvgResponseTime *int64  `json:"avgResponseTime,omitempty"`
}
