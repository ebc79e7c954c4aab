package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/paydesk-hq/paydesk/internal/audit/http"
	"github.com/paydesk-hq/paydesk/internal/capability"
	"github.com/paydesk-hq/paydesk/internal/observability"
	"github.com/paydesk-hq/paydesk/internal/payrun"
	"github.com/paydesk-hq/paydesk/internal/prefs"
	"github.com/paydesk-hq/paydesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Capability    capability.Middleware
	PayrunHandler *payrun.Handler
	AuditHandler  *audithttp.Handler
	PrefsHandler  *prefs.Handler
	JobHandler    *jobs.Handler
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with Paydesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:     params.Logger,
		Config:     params.Config,
		Capability: params.Capability,
		Metrics:    params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		if params.PayrunHandler != nil {
			params.PayrunHandler.MountRoutes(api, params.Capability)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(api, params.Capability)
		}
		if params.PrefsHandler != nil {
			params.PrefsHandler.MountRoutes(api, params.Capability)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
