package controllers

import (
	"net/http"

	"github.com/luciamendez/farmlink-backend/api/responses"
	"github.com/luciamendez/farmlink-backend/pkg/config"
	"github.com/luciamendez/farmlink-backend/pkg/db"
	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
	"github.com/luciamendez/farmlink-backend/pkg/logger"
	pkgredis "github.com/luciamendez/farmlink-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FarmLink-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FarmLink-Env", cfg.App.Env)

		checks := map[string]string{"db": "ok", "redis": "ok"}
		failed := false

		if dbP == nil {
			checks["db"] = "not configured"
			failed = true
		} else if err := dbP.Ping(r.Context()); err != nil {
			checks["db"] = "unreachable"
			failed = true
			if logg != nil {
				logg.Error(r.Context(), "health.db_ping_failed", err)
			}
		}

		if redisP == nil {
			checks["redis"] = "not configured"
			failed = true
		} else if err := redisP.Ping(r.Context()); err != nil {
			checks["redis"] = "unreachable"
			failed = true
			if logg != nil {
				logg.Error(r.Context(), "health.redis_ping_failed", err)
			}
		}

		if failed {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(map[string]any{"checks": checks}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
