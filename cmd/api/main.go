// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

// Command api is the entry point for the Pulse HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
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

	"github.com/pulseapp/pulse/internal/api"
	"github.com/pulseapp/pulse/internal/platform/config"
	"github.com/pulseapp/pulse/internal/platform/constants"
	"github.com/pulseapp/pulse/internal/platform/events"
	"github.com/pulseapp/pulse/internal/platform/media"
	"github.com/pulseapp/pulse/internal/platform/migration"
	pgstore "github.com/pulseapp/pulse/internal/platform/postgres"
	redisstore "github.com/pulseapp/pulse/internal/platform/redis"
	"github.com/pulseapp/pulse/internal/platform/sec"
	"github.com/pulseapp/pulse/internal/social/comment"
	"github.com/pulseapp/pulse/internal/social/post"
	"github.com/pulseapp/pulse/internal/users/account"
	"github.com/pulseapp/pulse/internal/users/auth"
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

	log.Info("[Pulse] service_initializing")

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

	// ── 6. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Optional Infrastructure ────────────────────────────────────────
	// Object storage and the event bus are opt-in. A missing configuration
	// disables the feature instead of failing startup.
	var mediaStorage *media.Storage
	if cfg.MediaEnabled() {
		mediaStorage, err = media.NewStorage(startupCtx, cfg)
		must(log, err, "initialize object storage")
		log.Info("media_storage_enabled", slog.String("bucket", cfg.S3Bucket))
	}

	var publisher *events.Publisher
	if cfg.EventsEnabled() {
		publisher, err = events.NewPublisher(cfg.AMQPURL, log)
		must(log, err, "connect to event broker")
		defer publisher.Close()
		log.Info("event_publishing_enabled")
	}

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	resetTokenRepository := auth.NewResetTokenRepository(rdb)
	verificationTokenRepository := auth.NewVerificationTokenRepository(rdb)
	authService := auth.NewService(
		userRepository,
		resetTokenRepository,
		verificationTokenRepository,
		jwtSvc,
		publisher,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)
	authHandler := auth.NewHandler(authService)

	accountService := account.NewService(userRepository, log)
	accountHandler := account.NewHandler(accountService)

	postRepository := post.NewPostRepository(pool)
	postService := post.NewService(postRepository, userRepository, publisher, log)
	postHandler := post.NewHandler(postService)

	commentRepository := comment.NewCommentRepository(pool)
	commentService := comment.NewService(commentRepository, postRepository, publisher, log)
	commentHandler := comment.NewHandler(commentService)

	var mediaHandler *media.Handler
	if mediaStorage != nil {
		mediaHandler = media.NewHandler(mediaStorage)
	}

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Account:   accountHandler,
		Post:      postHandler,
		Comment:   commentHandler,
		Media:     mediaHandler,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, jwtSvc, authService, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
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

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
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
