package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-core/internal/api/http/handlers"
	"github.com/spec-kit/crm-core/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Requests       *handlers.RequestsHandler
	Deals          *handlers.DealsHandler
	Views          *handlers.ViewsHandler
	Audit          *handlers.AuditHandler
	Search         *handlers.SearchHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/api/health/summary", cfg.Health.Summary)

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	requests := api.Group("/crm/requests")
	requests.Get("/", cfg.Requests.List)
	requests.Get("/view", cfg.Requests.List)
	requests.Post("/", cfg.Requests.Create)
	requests.Post("/bulk-assign", cfg.Requests.BulkAssign)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Put("/:id/assignee", cfg.Requests.SetAssignee)
	requests.Put("/:id/status", cfg.Requests.SetStatus)
	requests.Put("/:id/reopen", cfg.Requests.Reopen)
	requests.Put("/:id/priority", cfg.Requests.SetPriority)
	requests.Put("/:id/escalate", cfg.Requests.Escalate)
	requests.Post("/:id/tags", cfg.Requests.AddTags)
	requests.Delete("/:id/tags/:tag", cfg.Requests.RemoveTag)
	requests.Post("/:id/replies", cfg.Requests.AddReply)

	deals := api.Group("/crm/deals")
	deals.Get("/", cfg.Deals.List)
	deals.Post("/", cfg.Deals.Create)
	deals.Put("/:id/stage", cfg.Deals.SetStage)

	api.Get("/saved-filters", cfg.Views.List)
	api.Post("/saved-filters", cfg.Views.Create)
	api.Delete("/saved-filters/:id", cfg.Views.Delete)

	api.Get("/audit-logs", cfg.Audit.List)
	api.Get("/search", cfg.Search.Search)

	notifications := api.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Put("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Put("/:id/read", cfg.Notifications.MarkRead)
}
