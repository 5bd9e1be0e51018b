package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/fitplay-hq/fitplay-backend/api/responses"
	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	"github.com/fitplay-hq/fitplay-backend/pkg/db"
	"github.com/fitplay-hq/fitplay-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FitPlay-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, database db.Pinger, cache redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FitPlay-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"database": "ok", "cache": "ok"}
		ready := true
		if database == nil || database.Ping(ctx) != nil {
			checks["database"] = "unreachable"
			ready = false
		}
		if cache == nil || cache.Ping(ctx) != nil {
			checks["cache"] = "unreachable"
			ready = false
		}

		if !ready {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"checks": checks,
			})
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
