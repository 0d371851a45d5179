package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"vozsegura/internal/platform/metrics"
	"vozsegura/internal/platform/middleware"
	"vozsegura/pkg/platform/httputil"
	adminmw "vozsegura/pkg/platform/middleware/admin"
	authmw "vozsegura/pkg/platform/middleware/auth"
	"vozsegura/pkg/platform/middleware/metadata"
	"vozsegura/pkg/platform/middleware/requesttime"
)

// Registrar mounts a feature's routes on a router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config wires the feature handlers behind their authentication boundaries.
// Staff routes require a signed staff token; gateway routes require the shared
// token presented by the verification gateway.
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	StaffValidator authmw.JWTValidator
	GatewayToken   string
	Staff          []Registrar
	Gateway        []Registrar
	HealthChecks   map[string]HealthCheck
}

// NewRouter builds the process router.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(metadata.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.AccessLog(logger, cfg.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler(cfg.HealthChecks))
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireStaff(cfg.StaffValidator, logger))
		for _, reg := range cfg.Staff {
			reg.Register(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireGatewayToken(cfg.GatewayToken, logger))
		for _, reg := range cfg.Gateway {
			reg.Register(r)
		}
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
