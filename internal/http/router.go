// Package httpapi composes the cockpit HTTP API from the module handlers.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cockpit/internal/platform/metrics"
	"cockpit/internal/platform/middleware"
	"cockpit/pkg/platform/httputil"
	adminmw "cockpit/pkg/platform/middleware/admin"
	authmw "cockpit/pkg/platform/middleware/auth"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// AdminRegistrar mounts a module's back-office routes.
type AdminRegistrar interface {
	RegisterAdmin(r chi.Router)
}

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type Dependencies struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Validator   authmw.JWTValidator
	Revocations authmw.TokenRevocationChecker
	AdminToken  string

	// Authenticated routes.
	Modules []Registrar
	// Admin-token routes.
	AdminModules []AdminRegistrar

	HealthChecks map[string]HealthCheck
}

// NewRouter wires the public, authenticated and back-office route groups.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger, deps.Metrics))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", healthHandler(deps.HealthChecks, deps.Logger))

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(deps.Validator, deps.Revocations, deps.Logger))
		for _, m := range deps.Modules {
			m.Register(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(deps.AdminToken, deps.Logger))
		for _, m := range deps.AdminModules {
			m.RegisterAdmin(r)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = "unavailable"
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
