package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-core/internal/api/http/handlers"
	"github.com/spec-kit/crm-core/internal/audit"
	"github.com/spec-kit/crm-core/internal/auth"
	"github.com/spec-kit/crm-core/internal/config"
	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/notify"
	"github.com/spec-kit/crm-core/internal/observability"
	"github.com/spec-kit/crm-core/internal/persistence"
	"github.com/spec-kit/crm-core/internal/service"
	"github.com/spec-kit/crm-core/internal/sla"
	"github.com/spec-kit/crm-core/internal/store"
	"github.com/spec-kit/crm-core/internal/view"

	httptransport "github.com/spec-kit/crm-core/internal/api/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	auditLog := audit.NewMemoryLog()
	if pool := pg.PoolHandle(); pool != nil {
		auditLog = audit.NewPostgresLog(pool)
	}
	recorder := audit.NewRecorder(auditLog, logger)

	feed := notify.NewMemoryFeed()
	if redis.Client != nil {
		feed = notify.NewRedisFeed(redis.Client)
	}
	center := notify.NewCenter(feed, logger)

	requestStore := store.NewRequestStore()
	dealStore := store.NewDealStore()
	policy := sla.NewPolicy(cfg.SLA)

	requestService := service.NewRequestService(service.RequestDependencies{
		Requests: requestStore,
		Recorder: recorder,
		Center:   center,
		Policy:   policy,
		Logger:   logger,
	})
	dealService := service.NewDealService(dealStore, recorder, center)
	searchService := service.NewSearchService(requestStore, dealStore)

	registry := view.NewRegistry()
	seedViews(registry, logger)
	viewService := service.NewViewService(requestStore, registry, view.NewEngine())

	monitor := sla.NewMonitor(requestStore, center, logger, cfg.SLA.ScanInterval())
	go monitor.Run(ctx)

	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(cfg.Auth, tokens),
		Requests:       handlers.NewRequestsHandler(requestService, viewService),
		Deals:          handlers.NewDealsHandler(dealService),
		Views:          handlers.NewViewsHandler(viewService),
		Audit:          handlers.NewAuditHandler(recorder),
		Search:         handlers.NewSearchHandler(searchService),
		Notifications:  handlers.NewNotificationsHandler(center),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

// seedViews installs the stock admin views.
func seedViews(registry *view.Registry, logger *zap.Logger) {
	stock := []domain.SavedView{
		{
			Name:      "All requests",
			Sort:      domain.Sort{Field: "updatedAt", Direction: domain.SortDesc},
			IsDefault: true,
		},
		{
			Name: "Urgent queue",
			Filters: []domain.Filter{
				{Field: "priority", Kind: domain.FilterIn, Values: []string{"urgent", "high"}},
			},
			Sort: domain.Sort{Field: "priority", Direction: domain.SortDesc},
		},
		{
			Name: "SLA breached",
			Filters: []domain.Filter{
				{Field: "breached", Kind: domain.FilterEquals, Value: "true"},
			},
			Sort: domain.Sort{Field: "dueAt", Direction: domain.SortAsc},
		},
	}
	for _, v := range stock {
		if _, err := registry.Create(v); err != nil {
			logger.Warn("seed view skipped", zap.String("name", v.Name), zap.Error(err))
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
