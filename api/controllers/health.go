package controllers

import (
	"context"
	"net/http"

	"github.com/ecomjrm/ecomjrm-backend/api/responses"
	"github.com/ecomjrm/ecomjrm-backend/pkg/config"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-EcomJRM-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports per-dependency status; any failure flips the
// response to 503 so the load balancer stops routing here.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, gcsP pinger) http.HandlerFunc {
	deps := []struct {
		name string
		p    pinger
	}{
		{"database", dbP},
		{"redis", redisP},
		{"gcs", gcsP},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-EcomJRM-Env", cfg.App.Env)

		status := map[string]string{}
		healthy := true
		for _, dep := range deps {
			if dep.p == nil {
				status[dep.name] = "not configured"
				continue
			}
			if err := dep.p.Ping(r.Context()); err != nil {
				if logg != nil {
					logg.Error(r.Context(), "readiness check failed for "+dep.name, err)
				}
				status[dep.name] = "unavailable"
				healthy = false
				continue
			}
			status[dep.name] = "ok"
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
