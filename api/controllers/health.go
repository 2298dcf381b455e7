package controllers

import (
	"net/http"

	"github.com/rgarciadev/atelier-backend/api/responses"
	"github.com/rgarciadev/atelier-backend/pkg/config"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/logger"
	pkgredis "github.com/rgarciadev/atelier-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Atelier-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing dependency answers a
// ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers ...pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Atelier-Env", cfg.App.Env)
		for _, p := range pingers {
			if p == nil {
				continue
			}
			if err := p.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
