package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/repairops-backend/api/responses"
	"github.com/angelmondragon/repairops-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is anything readiness can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency names a readiness probe.
type Dependency struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live", "env": cfg.App.Env})
	}
}

// HealthReady pings every dependency and answers 503 when any of them fails.
// Nil pingers are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		failed := false
		for _, dep := range deps {
			if dep.Pinger == nil {
				continue
			}
			if err := dep.Pinger.Ping(ctx); err != nil {
				failed = true
				checks[dep.Name] = "down"
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "dependency", dep.Name), "readiness check failed: "+err.Error())
				}
				continue
			}
			checks[dep.Name] = "up"
		}

		if failed {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "env": cfg.App.Env, "checks": checks})
	}
}
