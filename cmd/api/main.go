// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the AIHub catalog API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services and HTTP handlers.
//  7. Bootstrap the demo API key.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taibuivan/aihub/internal/api"
	"github.com/taibuivan/aihub/internal/auth"
	"github.com/taibuivan/aihub/internal/core/apikey"
	"github.com/taibuivan/aihub/internal/core/catalog"
	"github.com/taibuivan/aihub/internal/core/importer"
	"github.com/taibuivan/aihub/internal/core/media"
	"github.com/taibuivan/aihub/internal/core/normalize"
	"github.com/taibuivan/aihub/internal/core/recommend"
	"github.com/taibuivan/aihub/internal/core/taxonomy"
	"github.com/taibuivan/aihub/internal/core/tool"
	"github.com/taibuivan/aihub/internal/platform/config"
	"github.com/taibuivan/aihub/internal/platform/constants"
	"github.com/taibuivan/aihub/internal/platform/metrics"
	"github.com/taibuivan/aihub/internal/platform/migration"
	pgstore "github.com/taibuivan/aihub/internal/platform/postgres"
	redisstore "github.com/taibuivan/aihub/internal/platform/redis"
	"github.com/taibuivan/aihub/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lives until shutdown; background loops (rate limiter cleanup) stop with it.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Platform Services ──────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	recorder := metrics.New(prometheus.NewRegistry())

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	catalogRepository := catalog.NewPostgresRepository(pool)

	policy := recommend.DefaultPolicy()
	if cfg.RecommendPolicyPath != "" {
		policy, err = recommend.LoadPolicy(cfg.RecommendPolicyPath)
		must(log, err, "load recommendation policy")
	}
	engine := recommend.NewEngine(catalogRepository, policy, constants.RecommendPageSize, log)

	reader := normalize.NewService(catalogRepository, normalize.NewEnricher(engine, log), cfg.PublicBaseURL)
	taxonomyService := taxonomy.NewService(catalogRepository, log)

	acquirer := media.NewAcquirer(catalogRepository, media.Options{
		AttemptTimeout: cfg.MediaAttemptTimeout,
		MaxBytes:       cfg.MediaMaxBytes,
		Observer:       recorder,
	}, log)

	importService := importer.NewService(catalogRepository, acquirer, taxonomyService, recorder, importer.Options{
		ItemDelay:   cfg.BatchItemDelay,
		MediaBudget: cfg.MediaBudget,
	}, log)

	keyService := apikey.NewService(apikey.NewPostgresRepository(pool), apikey.NewRedisUsageRecorder(rdb), log)
	toolService := tool.NewService(catalogRepository, reader, keyService)

	authService := auth.NewService(auth.Operator{
		Username:     cfg.OperatorUsername,
		PasswordHash: cfg.OperatorPasswordHash,
	}, jwtSvc, log)

	// ── 8. Demo Key ───────────────────────────────────────────────────────
	if cfg.BootstrapDemoKey {
		demo, err := keyService.EnsureDemoKey(startupCtx)
		must(log, err, "bootstrap demo api key")
		if demo != nil {
			// Printed once so the first client can connect; it is never listed again.
			log.Warn("demo_api_key_created",
				slog.Int64("key_id", demo.ID),
				slog.String("api_key", demo.Token),
			)
		}
	}

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   recorder.Handler(),
		Gateway:   apikey.Gateway(keyService, recorder),
		Auth:      auth.NewHandler(authService),
		Tool:      tool.NewHandler(toolService),
		Taxonomy:  taxonomy.NewHandler(taxonomyService),
		Importer:  importer.NewHandler(importService),
		APIKey:    apikey.NewHandler(keyService),
	}

	server := api.NewServer(appCtx, api.Options{
		Port:     cfg.ServerPort,
		CORS:     cfg,
		Verifier: jwtSvc,
		Observer: recorder,
	}, log, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	shutdownErr := server.Shutdown(shutdownTimeout)
	appCancel()

	// Pending last-used writes finish before the pool closes.
	keyService.Wait()

	if shutdownErr != nil {
		log.Error("shutdown error", slog.Any("error", shutdownErr))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
