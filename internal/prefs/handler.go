package prefs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/paydesk-hq/paydesk/internal/capability"
	"github.com/paydesk-hq/paydesk/internal/platform/httpx"
)

// Handler serves the preferences endpoints.
type Handler struct {
	logger   *slog.Logger
	store    Store
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store, validate: validator.New()}
}

type putRequest struct {
	HiddenColumns []string `json:"hiddenColumns" validate:"max=16,dive,max=40"`
	PageSize      int      `json:"pageSize" validate:"min=0,max=100"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := capability.IdentityFromContext(r.Context())
	p, err := h.store.Get(r.Context(), id.UserID)
	if err != nil {
		// Degrade to defaults; a broken prefs store must not block the UI.
		h.logger.Warn("prefs read failed", slog.Any("error", err))
		p = Defaults()
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	id := capability.IdentityFromContext(r.Context())
	var req putRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p := Preferences{HiddenColumns: req.HiddenColumns, PageSize: req.PageSize}.Normalize()
	if err := h.store.Put(r.Context(), id.UserID, p); err != nil {
		h.logger.Error("prefs write failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// MountRoutes registers the preference endpoints.
func (h *Handler) MountRoutes(r chi.Router, caps capability.Middleware) {
	if h == nil {
		return
	}
	r.Group(func(gr chi.Router) {
		gr.Use(caps.Require(capability.CapViewPayruns))
		gr.Get("/preferences", h.handleGet)
		gr.Put("/preferences", h.handlePut)
	})
}
