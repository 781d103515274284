// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/marketflow/agency-api/internal/ad"
	"github.com/marketflow/agency-api/internal/admin"
	"github.com/marketflow/agency-api/internal/analytics"
	"github.com/marketflow/agency-api/internal/audit"
	"github.com/marketflow/agency-api/internal/auth"
	"github.com/marketflow/agency-api/internal/brief"
	"github.com/marketflow/agency-api/internal/cache"
	"github.com/marketflow/agency-api/internal/client"
	"github.com/marketflow/agency-api/internal/config"
	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/health"
	"github.com/marketflow/agency-api/internal/middleware"
	"github.com/marketflow/agency-api/internal/navigation"
	"github.com/marketflow/agency-api/internal/profile"
	"github.com/marketflow/agency-api/internal/realtime"
	"github.com/marketflow/agency-api/internal/server"
	"github.com/marketflow/agency-api/internal/task"
	"github.com/marketflow/agency-api/internal/workflow"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	if cfg.Database.RunMigrations {
		if err := core.Migrate(cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	var metrics *core.Metrics
	if cfg.Metrics.Enabled {
		metrics = core.NewMetrics(cfg.Metrics.Namespace)
	}

	collections := cache.New(redis.Client, cfg.Cache, metrics)
	auditLog := audit.NewLog(db.DB)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	profileSvc := profile.NewService(profile.NewRepository(db.DB), collections)
	profileHandler := profile.NewHandler(profileSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(authRepo, jwtManager, profileSvc, redis.Client)
	authHandler := auth.NewHandler(authSvc)
	auth.StartJanitor(ctx, authRepo, cfg.JWT.CleanupInterval, logger)

	clientSvc := client.NewService(client.NewRepository(db.DB), collections, auditLog)
	clientHandler := client.NewHandler(clientSvc)

	taskRepo := task.NewRepository(db.DB)
	taskSvc := task.NewService(taskRepo, collections, auditLog, metrics)
	taskHandler := task.NewHandler(taskSvc)

	briefSvc := brief.NewService(
		brief.NewRepository(db.DB),
		taskRepo,
		brief.NewUnitOfWork(db, auditLog),
		collections,
		auditLog,
		metrics,
	)
	briefHandler := brief.NewHandler(briefSvc)

	adSvc := ad.NewService(ad.NewRepository(db.DB), collections, auditLog)
	adHandler := ad.NewHandler(adSvc)

	analyticsSvc := analytics.NewService(analytics.NewRepository(db.DB), collections)
	analyticsHandler := analytics.NewHandler(analyticsSvc)

	policy := navigation.Policy{
		AllowAllWithoutRole: cfg.Navigation.AllowAllWithoutRole,
	}
	navigationHandler := navigation.NewHandler(policy, middleware.RequestIdentity{})

	hub := realtime.NewHub(cfg.Realtime.SubscriberBuffer, collections, metrics)
	changesHandler := realtime.NewHandler(hub)

	checks := []health.Check{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}

	adminCfg := admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DB:         db,
		Redis:      redis,
		Feed:       hub,
		Sessions:   authSvc,
		Audit:      auditLog,
	}

	if cfg.Realtime.Enabled {
		listener := realtime.NewListener(cfg.Database.URL, cfg.Realtime, hub, logger)
		go func() {
			if err := listener.Run(ctx); err != nil {
				logger.Error("change listener stopped", "error", err)
			}
		}()
		checks = append(checks, health.Check{Name: "change_listener", Checker: listener})
		adminCfg.Listener = listener
	}

	healthHandler := health.NewHandler(checks...)
	adminHandler := admin.NewHandler(adminCfg)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
		OnShutdown:    []func(){hub.Close},
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(metrics))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit:    middleware.LimitFromConfig(cfg.RateLimit),
			Skip:     middleware.SkipPaths("/healthz", "/livez", "/readyz", cfg.Metrics.Path),
			FailOpen: true,
		}).Handler,
	)
	authLimit := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name:     "auth",
		Limit:    middleware.AuthLimitFromConfig(cfg.RateLimit),
		FailOpen: true,
	}).Handler
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())
	if metrics != nil {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	authenticator := middleware.Authenticator(authSvc)
	optionalAuth := middleware.OptionalAuth(authSvc)
	adminOnly := middleware.RequireAdmin
	destination := func(keys ...navigation.Key) func(next http.Handler) http.Handler {
		return middleware.RequireDestination(policy, keys...)
	}
	// Team leads reach tasks through Campaigns; the workflow decides what
	// they may do with them.
	taskWork := destination(navigation.Tasks, navigation.Campaigns)
	managers := middleware.RequireRole(workflow.RoleAdmin, workflow.RoleDMManager)
	planners := middleware.RequireRole(
		workflow.RoleAdmin,
		workflow.RoleDMManager,
		workflow.RoleDMTeamLead,
	)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, authLimit)

		profileHandler.RegisterRoutes(r, authenticator)
		profileHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)

		navigationHandler.RegisterRoutes(r, authenticator, optionalAuth)

		clientHandler.RegisterRoutes(r, authenticator, destination(navigation.Clients), managers)
		briefHandler.RegisterRoutes(r, authenticator, destination(navigation.Tasks), managers)
		taskHandler.RegisterRoutes(r, authenticator, taskWork, planners)
		adHandler.RegisterRoutes(r, authenticator, destination(navigation.AdsManager))
		analyticsHandler.RegisterRoutes(
			r,
			authenticator,
			destination(navigation.Dashboard),
			destination(navigation.Analytics),
		)
		changesHandler.RegisterRoutes(r, authenticator, taskWork)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
