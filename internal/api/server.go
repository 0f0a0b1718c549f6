// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api assembles the HTTP surface of the Passage server.

It owns the router, the middleware chain, and the lifecycle of the underlying
http.Server. Domain handlers are injected; this package only composes them.

Middleware order is deliberate:

  1. CleanPath / RequestID / StructuredLogger - traceability first.
  2. Timeout / RateLimit / PanicRecovery - safety rails.
  3. CORS - browser policy.
  4. Authenticate - session resolution, so every route below sees identity.
*/
package api

import (
	stdctx "context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/passage/internal/auth"
	"github.com/taibuivan/passage/internal/platform/config"
	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/internal/platform/middleware"
)

// Server wraps the HTTP server and its routing table.
type Server struct {
	config     *config.Config
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer composes the full middleware chain and routing table.
//
// # Parameters
//   - ctx: Application lifetime context (bounds background goroutines).
//   - cfg: Loaded application configuration.
//   - logger: Root structured logger.
//   - pool: PostgreSQL pool, for readiness probing.
//   - redisClient: Redis client, for readiness probing.
//   - sessionService: Session service backing the Authenticate middleware.
//   - authHandler: Authentication endpoints.
func NewServer(
	ctx stdctx.Context,
	cfg *config.Config,
	logger *slog.Logger,
	pool *pgxpool.Pool,
	redisClient *goredis.Client,
	sessionService *auth.Service,
	authHandler *auth.Handler,
) *Server {
	router := chi.NewRouter()

	// 1. Traceability
	router.Use(chimw.CleanPath)
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))

	// 2. Safety rails
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.RateLimit(ctx))
	router.Use(middleware.PanicRecovery(logger))

	// 3. Browser policy
	router.Use(middleware.CORS(cfg))

	// 4. Session resolution for every route below
	router.Use(auth.Authenticate(sessionService))

	// Probes
	healthHandler := newHealthHandler(pool, redisClient)
	router.Get("/health", healthHandler.health)
	router.Get("/ready", healthHandler.ready)

	// Domain surface
	router.Mount("/auth", authHandler.Routes())

	return &Server{
		config: cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
		},
	}
}

// Start begins serving and blocks until the listener closes.
func (server *Server) Start() error {
	server.logger.Info("http_server_started",
		slog.String("addr", server.httpServer.Addr),
		slog.String("environment", server.config.Environment),
	)

	if err := server.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests and closes the listener.
func (server *Server) Shutdown(ctx stdctx.Context) error {
	server.logger.Info("http_server_shutting_down")
	return server.httpServer.Shutdown(ctx)
}
