// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api runs the Passage authentication server.
//
// Startup order matters: config, logging, storage, migrations, then the HTTP
// surface. A failure in any step aborts the boot; the server never serves
// traffic against a half-initialized backend.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/passage/internal/api"
	"github.com/taibuivan/passage/internal/auth"
	"github.com/taibuivan/passage/internal/oauth"
	"github.com/taibuivan/passage/internal/platform/config"
	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/internal/platform/migration"
	"github.com/taibuivan/passage/internal/platform/postgres"
	"github.com/taibuivan/passage/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal_startup_error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {

	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Structured logging (JSON, level follows DEBUG)
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("booting",
		slog.String("service", constants.AppName),
		slog.String("version", constants.AppVersion),
		slog.String("environment", cfg.Environment),
	)

	// 3. Application lifetime context, cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Storage backends
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	// 5. Schema migrations
	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
		return err
	}

	// 6. Domain wiring
	userStore := auth.NewPostgresUserStore(pool)
	sessionStore := auth.NewPostgresSessionStore(pool)
	attemptStore := auth.NewRedisAttemptStore(redisClient)
	sessionService := auth.NewService(sessionStore, logger)
	loginHooks := auth.NewLoginHooks(userStore, sessionService, cfg.UIURL)

	flows, err := buildFlows(cfg, loginHooks, logger)
	if err != nil {
		return err
	}

	authHandler := auth.NewHandler(sessionService, flows, attemptStore, cfg.UIURL)

	// 7. HTTP surface
	server := api.NewServer(ctx, cfg, logger, pool, redisClient, sessionService, authHandler)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	// 8. Block until shutdown signal or listener failure
	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("shutdown_complete")
	return nil
}

// buildFlows constructs one OAuth flow per configured provider. A provider
// with an empty client ID is skipped, so deployments enable providers purely
// through the environment.
func buildFlows(cfg *config.Config, hooks oauth.Hooks, logger *slog.Logger) (map[string]*oauth.Flow, error) {
	credentials := map[string][2]string{
		oauth.ProviderGoogle:   {cfg.GoogleClientID, cfg.GoogleClientSecret},
		oauth.ProviderGitHub:   {cfg.GitHubClientID, cfg.GitHubClientSecret},
		oauth.ProviderDiscord:  {cfg.DiscordClientID, cfg.DiscordClientSecret},
		oauth.ProviderTwitter:  {cfg.TwitterClientID, cfg.TwitterClientSecret},
		oauth.ProviderLinkedIn: {cfg.LinkedInClientID, cfg.LinkedInClientSecret},
	}

	flows := make(map[string]*oauth.Flow)
	for name, pair := range credentials {
		if pair[0] == "" {
			continue
		}

		flow, err := oauth.NewFlow(oauth.FlowConfig{
			Provider:            name,
			ClientID:            pair[0],
			ClientSecret:        pair[1],
			RedirectURL:         cfg.PublicBaseURL + "/auth/" + name + "/callback",
			VerifiedRedirectURI: cfg.UIURL,
			Hooks:               hooks,
		})
		if err != nil {
			return nil, err
		}

		flows[name] = flow
		logger.Info("oauth_provider_enabled", slog.String("provider", name))
	}

	if len(flows) == 0 {
		logger.Warn("no_oauth_providers_configured")
	}

	return flows, nil
}
