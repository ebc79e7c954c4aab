package audithttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/paydesk-hq/paydesk/internal/capability"
)

const rateLimit = 30
const rateWindow = time.Minute

// MountRoutes registers the audit endpoints.
func (h *Handler) MountRoutes(r chi.Router, caps capability.Middleware) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Group(func(gr chi.Router) {
		gr.Use(caps.Require(capability.CapViewAudit))
		gr.Use(limiter)
		gr.Get("/audit", h.handleList)
	})
}
