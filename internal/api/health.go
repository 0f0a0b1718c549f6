// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/internal/platform/postgres"
	"github.com/taibuivan/passage/internal/platform/redis"
	"github.com/taibuivan/passage/internal/platform/respond"
)

// # Health Probes

type healthHandler struct {
	pool        *pgxpool.Pool
	redisClient *goredis.Client
}

func newHealthHandler(pool *pgxpool.Pool, redisClient *goredis.Client) *healthHandler {
	return &healthHandler{pool: pool, redisClient: redisClient}
}

/*
health is the liveness probe: the process is up and serving.

GET /health
*/
func (handler *healthHandler) health(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{
		"status":  "ok",
		"service": constants.AppName,
		"version": constants.AppVersion,
	})
}

/*
ready is the readiness probe: both storage backends answer.

GET /ready

Responses:
  - 200: PostgreSQL and Redis are reachable.
  - 503: A dependency is down; stop routing traffic here.
*/
func (handler *healthHandler) ready(writer http.ResponseWriter, request *http.Request) {
	if err := postgres.Ping(request.Context(), handler.pool); err != nil {
		respond.Error(writer, request, apperr.ServiceUnavailable("Database unavailable"))
		return
	}

	if err := redis.Ping(request.Context(), handler.redisClient); err != nil {
		respond.Error(writer, request, apperr.ServiceUnavailable("Cache unavailable"))
		return
	}

	respond.OK(writer, map[string]string{"status": "ready"})
}
