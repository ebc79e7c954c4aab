// Package audithttp exposes the payrun audit trail over HTTP.
package audithttp

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/paydesk-hq/paydesk/internal/audit"
	"github.com/paydesk-hq/paydesk/internal/platform/httpx"
	"github.com/paydesk-hq/paydesk/internal/shared"
)

// Handler serves the audit listing.
type Handler struct {
	logger  *slog.Logger
	service *audit.Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *audit.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := audit.ListFilter{}
	q := r.URL.Query()

	if raw := q.Get("payrunId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "payrunId must be a UUID")
			return
		}
		filter.PayrunID = id
	}
	if raw := q.Get("action"); raw != "" {
		filter.Action = audit.Action(raw)
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = t
		}
	}
	if raw := q.Get("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("offset"); raw != "" {
		filter.Offset, _ = strconv.Atoi(raw)
	}

	entries, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list audit entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	perPage := filter.Limit
	if perPage <= 0 {
		perPage = 50
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":    entries,
		"pagination": shared.NewPaginationFromOffset(filter.Offset, perPage, total),
	})
}
