package main

import (
	"context"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"aguin/internal/amqp"
	"aguin/internal/auth"
	"aguin/internal/cache"
	"aguin/internal/cli"
	"aguin/internal/config"
	apphttp "aguin/internal/http"
	"aguin/internal/log"
	"aguin/internal/media"
	"aguin/internal/metrics"
	"aguin/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	ctx := context.Background()

	logger.Info("Starting aguin", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)

	st, closeStore := cli.OpenStore(ctx, cfg, logger)

	if cfg.AdminUsername != "" {
		created, err := auth.EnsureAdmin(ctx, st, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			logger.Fail(ctx, "Failed to provision admin user", log.OpStartup, err)
			os.Exit(1)
		}
		if created {
			logger.Info("Admin user created", log.FieldUsername, cfg.AdminUsername)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var publisher amqp.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Ledger export catches up through the worker's re-export pass.
			logger.Fail(ctx, "AMQP unavailable, events disabled", log.OpStartup, err)
		} else {
			amqpClient, publisher = c, c
		}
	} else {
		logger.Info("AMQP_URL not set, ledger events disabled")
	}
	notifier := services.NewNotifier(publisher, m, logger)

	summaryCache, stopCache := dashboardCache(ctx, cfg, logger)
	dash := services.NewDashboardService(st, logger,
		services.WithSummaryCache(summaryCache),
		services.WithDashboardMetrics(m))
	notifier.OnChange(dash.Invalidate)

	var uploader media.Uploader
	if cfg.CloudinaryEnabled() {
		cld, err := media.NewCloudinary(media.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, logger)
		if err != nil {
			logger.Fail(ctx, "Failed to initialize Cloudinary", log.OpStartup, err)
			os.Exit(1)
		}
		uploader = cld
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:        st,
		Dashboard:    dash,
		Booking:      services.NewBookingService(st, notifier, m, logger),
		Reservations: services.NewReservationService(st, notifier, logger),
		Directory:    services.NewDirectoryService(st, notifier),
		Payments:     services.NewPaymentService(st, notifier, m, logger),
		Catalog:      services.NewCatalogService(st, notifier),
		Reviews:      services.NewReviewService(st, notifier),
		Gallery:      services.NewGalleryService(st, uploader, notifier, m, logger),
		Auth:         auth.NewAuthenticator(st, logger),
		Tokens:       auth.NewTokenIssuer(cfg.AuthSecret, cfg.SessionTTL),
		Metrics:      m,
		Gatherer:     reg,
		Logger:       logger,
	}, apphttp.Options{
		Location:           cfg.Location(),
		CookieSecure:       cfg.CookieSecure,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		logger.Fail(ctx, "Failed to build HTTP server", log.OpStartup, err)
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Fail(ctx, "Server shutdown error", log.OpShutdown, err)
		}
		stopCache()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := closeStore(); err != nil {
			logger.Fail(ctx, "Store close error", log.OpShutdown, err)
		}
	})

	if err := srv.ListenAndServe(); err != nil {
		logger.Fail(ctx, "Server error", log.OpStartup, err, "port", cfg.Port)
		os.Exit(1)
	}
	cli.WaitForShutdown(shutdownCtx, done)
}

// dashboardCache prefers Redis when configured so that replicas share one
// summary, and falls back to an in-process LRU.
func dashboardCache(ctx context.Context, cfg *config.Config, logger *log.Logger) (cache.Cache[services.CachedSummary], func()) {
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("Dashboard cache backed by Redis")
			return cache.NewRedisCache[services.CachedSummary](client, cfg.DashboardCacheTTL, logger),
				func() { _ = client.Close() }
		}
		logger.Fail(ctx, "Redis unavailable, using in-memory cache", log.OpStartup, err)
	}

	lru := cache.NewLRUCache[services.CachedSummary](16, cfg.DashboardCacheTTL)
	manager := cache.NewManager(logger)
	manager.Register(lru)
	manager.StartCleanup(time.Minute)
	return lru, manager.Stop
}
