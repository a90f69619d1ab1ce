// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pulseapp/pulse/internal/platform/config"
	"github.com/pulseapp/pulse/internal/platform/constants"
	"github.com/pulseapp/pulse/internal/platform/media"
	"github.com/pulseapp/pulse/internal/platform/middleware"
	"github.com/pulseapp/pulse/internal/social/comment"
	"github.com/pulseapp/pulse/internal/social/post"
	"github.com/pulseapp/pulse/internal/users/account"
	"github.com/pulseapp/pulse/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles the session lifecycle (register, login, refresh, logout).
	Auth *auth.Handler

	// Account handles the viewer's own profile and public profile lookups.
	Account *account.Handler

	// Post handles the feed, publishing, and likes.
	Post *post.Handler

	// Comment handles conversations beneath posts.
	Comment *comment.Handler

	// Media handles presigned object storage URLs. Nil when no object
	// store is configured; the routes are simply not mounted.
	Media *media.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, resolver middleware.UserResolver, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// The session gate is scoped per route group rather than applied
	// globally: the public auth endpoints (refresh in particular) must
	// stay reachable with a stale or junk access token attached.
	sessionGate := middleware.Authenticate(verifier, resolver)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes(sessionGate))

		api.Group(func(protected chi.Router) {
			protected.Use(sessionGate)
			protected.Mount("/users", h.Account.Routes())
			protected.Mount("/posts", h.Post.Routes(h.Comment.Routes()))
			if h.Media != nil {
				protected.Mount("/media", h.Media.Routes())
			}
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
