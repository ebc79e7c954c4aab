package payrun

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/paydesk-hq/paydesk/internal/capability"
)

const authorizeRateLimit = 10
const authorizeRateWindow = time.Minute

// MountRoutes registers the payrun dashboard endpoints. Authorization
// submission carries its own tighter rate limit on top of the global one.
func (h *Handler) MountRoutes(r chi.Router, caps capability.Middleware) {
	if h == nil {
		return
	}
	authorizeLimiter := httprate.Limit(authorizeRateLimit, authorizeRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Group(func(gr chi.Router) {
		gr.Use(caps.Require(capability.CapViewPayruns))
		gr.Get("/payruns", h.handleListPayruns)
		gr.Get("/sessions/{sessionID}", h.handleGetSession)
		gr.Get("/sessions/{sessionID}/leave-check", h.handleLeaveCheck)
	})

	r.Group(func(gr chi.Router) {
		gr.Use(caps.Require(capability.CapEditPayrun))
		gr.Post("/payruns/{payrunID}/sessions", h.handleOpenSession)
		gr.Delete("/sessions/{sessionID}", h.handleCloseSession)
		gr.Post("/sessions/{sessionID}/toggle-invoice", h.handleToggleInvoice)
		gr.Post("/sessions/{sessionID}/toggle-contact", h.handleToggleContact)
		gr.Post("/sessions/{sessionID}/select-account", h.handleSelectAccount)
		gr.Post("/sessions/{sessionID}/amount", h.handleOverrideAmount)
		gr.Post("/sessions/{sessionID}/expand", h.handleExpand)
		gr.Post("/sessions/{sessionID}/save", h.handleSave)
		gr.Post("/sessions/{sessionID}/discard", h.handleDiscard)
		gr.Post("/sessions/{sessionID}/rename", h.handleRename)
	})

	r.Group(func(gr chi.Router) {
		gr.Use(caps.Require(capability.CapAuthorizePayrun))
		gr.Use(authorizeLimiter)
		gr.Post("/sessions/{sessionID}/authorize", h.handleAuthorize)
	})
}
