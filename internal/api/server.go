// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

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

	"github.com/taibuivan/aihub/internal/auth"
	"github.com/taibuivan/aihub/internal/core/apikey"
	"github.com/taibuivan/aihub/internal/core/importer"
	"github.com/taibuivan/aihub/internal/core/taxonomy"
	"github.com/taibuivan/aihub/internal/core/tool"
	"github.com/taibuivan/aihub/internal/platform/constants"
	"github.com/taibuivan/aihub/internal/platform/middleware"
	"github.com/taibuivan/aihub/internal/platform/sec"
)

// APIPrefix is the versioned mount point of every catalog route.
const APIPrefix = "/ai-tools/v1"

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
type Handlers struct {
	// Liveness is the /health handler. Always returns 200 if the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. Returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Metrics serves the Prometheus exposition at /metrics.
	Metrics http.Handler

	// Gateway requires an API key on the public catalog routes.
	Gateway func(http.Handler) http.Handler

	// Auth handles operator login.
	Auth *auth.Handler

	Tool     *tool.Handler
	Taxonomy *taxonomy.Handler
	Importer *importer.Handler

	// APIKey manages keys. Mounted behind the operator guard.
	APIKey *apikey.Handler
}

// Options carries the settings the router needs from configuration.
type Options struct {
	Port     string
	CORS     middleware.CORSConfig
	Verifier middleware.TokenVerifier
	Observer middleware.RequestObserver
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, options Options, log *slog.Logger, h Handlers) *Server {
	r := NewRouter(context, options, log, h)

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + options.Port,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

/*
NewRouter builds the route tree.

Route groups:
  - /health, /ready, /metrics: unauthenticated infrastructure probes
  - /ai-tools/v1/auth: operator login
  - /ai-tools/v1 (reads, imports): API key gateway
  - /ai-tools/v1 (key management): operator JWT with the admin role

Imports get their own, longer deadline; every other group uses the global one.
*/
func NewRouter(context context.Context, options Options, log *slog.Logger, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	if options.Observer != nil {
		r.Use(middleware.Metrics(options.Observer))
	}
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(options.CORS))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// # Application API
	r.Route(APIPrefix, func(v1 chi.Router) {
		v1.With(chimw.Timeout(constants.GlobalRequestTimeout)).Mount("/auth", h.Auth.Routes())

		v1.Group(func(public chi.Router) {
			public.Use(h.Gateway)

			public.Group(func(reads chi.Router) {
				reads.Use(chimw.Timeout(constants.GlobalRequestTimeout))
				h.Tool.RegisterRoutes(reads)
				h.Taxonomy.RegisterRoutes(reads)
			})

			public.Group(func(imports chi.Router) {
				imports.Use(chimw.Timeout(constants.ImportRequestTimeout))
				h.Importer.RegisterRoutes(imports)
			})
		})

		v1.Group(func(admin chi.Router) {
			admin.Use(middleware.Authenticate(options.Verifier))
			admin.Use(middleware.RequireRole(sec.RoleAdmin))
			admin.Use(chimw.Timeout(constants.GlobalRequestTimeout))
			h.APIKey.RegisterRoutes(admin)
		})
	})

	return r
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
