package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-core/internal/api/dto"
	"github.com/spec-kit/crm-core/internal/observability"
	"github.com/spec-kit/crm-core/internal/persistence"
)

// errorRateThreshold is the rolling error rate above which the API
// reports unhealthy.
const errorRateThreshold = 0.10

// HealthHandler responds to liveness/readiness probes and the summary.
type HealthHandler struct {
	serviceName string
	version     string
	startedAt   time.Time
	postgres    *persistence.Postgres
	redis       *persistence.Redis
	metrics     *observability.Metrics
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		startedAt:   time.Now(),
		postgres:    postgres,
		redis:       redis,
		metrics:     metrics,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if err := h.postgres.Ping(ctx); err != nil {
		depStatus["postgres"] = err.Error()
		ready = false
	} else {
		depStatus["postgres"] = "ok"
	}

	if err := h.redis.Ping(ctx); err != nil {
		depStatus["redis"] = err.Error()
		ready = false
	} else {
		depStatus["redis"] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

// Summary aggregates uptime, DB health and rolling API statistics.
// api.ok holds exactly when the rolling error rate stays under 10%.
func (h *HealthHandler) Summary(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	now := time.Now()
	summary := dto.HealthSummary{
		Uptime:    now.Sub(h.startedAt).Round(time.Second).String(),
		Timestamp: now.Format(time.RFC3339),
		Version:   h.version,
	}

	dbStart := time.Now()
	if err := h.postgres.Ping(ctx); err != nil {
		summary.DB = dto.DBHealth{OK: false}
	} else {
		rtt := time.Since(dbStart).Milliseconds()
		summary.DB = dto.DBHealth{OK: true, ResponseTime: &rtt}
	}

	requests, errorRate, avgLatency := h.metrics.Rolling()
	summary.API = dto.APIHealth{
		OK:        errorRate < errorRateThreshold,
		ErrorRate: errorRate,
	}
	if requests > 0 {
		avgMs := avgLatency.Milliseconds()
		summary.API.AvgResponseTime = &avgMs
		summary.LatencyMs = avgMs
	}

	return c.JSON(summary)
}
