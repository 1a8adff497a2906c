package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/setdecrunner/backend/api/responses"
	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/logger"
)

// Pinger is the readiness contract for backing services.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SetDec-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and redis. A nil pinger is reported as
// skipped so dev setups without redis still come up ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, db Pinger, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		w.Header().Set("X-SetDec-Env", cfg.App.Env)

		checks := map[string]string{}
		ready := true
		for name, p := range map[string]Pinger{"db": db, "redis": cache} {
			if p == nil {
				checks[name] = "skipped"
				continue
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "down"
				ready = false
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "dependency", name), "readiness check failed")
				}
				continue
			}
			checks[name] = "up"
		}

		payload := map[string]any{"status": "ready", "checks": checks}
		if !ready {
			payload["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, payload)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
