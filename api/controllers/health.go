package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const readyTimeout = 2 * time.Second

const envHeader = "X-Storefront-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the database and redis both answer a
// ping inside readyTimeout.
func HealthReady(cfg *config.Config, logg *logger.Logger, database db.Pinger, cache redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		var failed error
		if database == nil {
			checks["database"] = "unconfigured"
			failed = pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")
		} else if err := database.Ping(ctx); err != nil {
			checks["database"] = "down"
			failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database ping")
		}
		if cache == nil {
			checks["redis"] = "unconfigured"
			failed = pkgerrors.New(pkgerrors.CodeDependency, "redis unavailable")
		} else if err := cache.Ping(ctx); err != nil {
			checks["redis"] = "down"
			failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis ping")
		}

		if failed != nil {
			responses.WriteError(r.Context(), logg, w, failed)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
