package payrun

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paydesk-hq/paydesk/internal/capability"
	"github.com/paydesk-hq/paydesk/internal/platform/httpx"
)

// Handler serves the payrun dashboard API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

type openSessionRequest struct {
	MerchantID string `json:"merchantId" validate:"required,uuid4"`
}

type toggleInvoiceRequest struct {
	Currency  string `json:"currency" validate:"required,len=3"`
	Contact   string `json:"contact" validate:"required"`
	InvoiceID string `json:"invoiceId" validate:"required,uuid4"`
	Enabled   *bool  `json:"enabled" validate:"required"`
}

type toggleContactRequest struct {
	Currency string `json:"currency" validate:"required,len=3"`
	Contact  string `json:"contact" validate:"required"`
	Enabled  *bool  `json:"enabled" validate:"required"`
}

type selectAccountRequest struct {
	Currency  string `json:"currency" validate:"required,len=3"`
	AccountID string `json:"accountId" validate:"required,uuid4"`
}

type overrideAmountRequest struct {
	Currency    string `json:"currency" validate:"required,len=3"`
	Contact     string `json:"contact" validate:"required"`
	InvoiceID   string `json:"invoiceId" validate:"required,uuid4"`
	AmountToPay string `json:"amountToPay" validate:"required"`
}

type expandRequest struct {
	Currency string `json:"currency" validate:"required,len=3"`
	Contact  string `json:"contact" validate:"required"`
	Open     *bool  `json:"open" validate:"required"`
}

type renameRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type authorizeRequest struct {
	PaymentDate string `json:"paymentDate" validate:"required,datetime=2006-01-02"`
	Notes       string `json:"notes" validate:"max=140"`
}

func (h *Handler) decodeValid(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return err
	}
	return h.validate.Struct(target)
}

func (h *Handler) handleListPayruns(w http.ResponseWriter, r *http.Request) {
	id := capability.IdentityFromContext(r.Context())
	if id.MerchantID == uuid.Nil {
		httpx.Problem(w, http.StatusBadRequest, "Missing Merchant", "merchant context required")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	result, err := h.service.ListPayruns(r.Context(), id.MerchantID, page, size)
	if err != nil {
		h.logger.Error("list payruns", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	payrunID, err := uuid.Parse(chi.URLParam(r, "payrunID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payrun", "payrun id must be a UUID")
		return
	}
	var req openSessionRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	merchantID, _ := uuid.Parse(req.MerchantID)

	sess, err := h.service.OpenSession(r.Context(), merchantID, payrunID)
	if err != nil {
		h.logger.Error("open session", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewSessionView(sess))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, NewSessionView(sess))
}

func (h *Handler) handleToggleInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req toggleInvoiceRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	invoiceID, _ := uuid.Parse(req.InvoiceID)

	sess, err := h.service.ToggleInvoice(r.Context(), id, Currency(req.Currency), req.Contact, invoiceID, *req.Enabled)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewSessionView(sess))
}

func (h *Handler) handleToggleContact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req toggleContactRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sess, err := h.service.ToggleContact(r.Context(), id, Currency(req.Currency), req.Contact, *req.Enabled)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewSessionView(sess))
}

func (h *Handler) handleSelectAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req selectAccountRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	accountID, _ := uuid.Parse(req.AccountID)

	sess, err := h.service.SelectAccount(r.Context(), id, Currency(req.Currency), accountID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewSessionView(sess))
}

func (h *Handler) handleOverrideAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req overrideAmountRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.AmountToPay)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amountToPay must be a decimal number")
		return
	}
	invoiceID, _ := uuid.Parse(req.InvoiceID)

	sess, err := h.service.OverrideAmount(r.Context(), id, Currency(req.Currency), req.Contact, invoiceID, amount)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewSessionView(sess))
}

func (h *Handler) handleExpand(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req expandRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sess, err := h.service.SetExpanded(r.Context(), id, Currency(req.Currency), req.Contact, *req.Open)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewSessionView(sess))
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	actor := capability.IdentityFromContext(r.Context()).UserID
	sess, cs, err := h.service.Save(r.Context(), id, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"session": NewSessionView(sess),
		"changes": cs,
	})
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.service.Discard(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewSessionView(sess))
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := capability.IdentityFromContext(r.Context()).UserID
	sess, err := h.service.Rename(r.Context(), id, req.Name, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewSessionView(sess))
}

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req authorizeRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	paymentDate, err := time.Parse("2006-01-02", req.PaymentDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "paymentDate must be YYYY-MM-DD")
		return
	}
	actor := capability.IdentityFromContext(r.Context()).UserID

	authReq, err := h.service.Authorize(r.Context(), id, paymentDate, req.Notes, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, authReq)
}

func (h *Handler) handleLeaveCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	canLeave, err := h.service.CanLeave(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"canLeave": canLeave})
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.service.CloseSession(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Session", "session id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return nil, false
	}
	sess, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return nil, false
	}
	return sess, true
}

// respondError maps domain errors onto problem responses. Validation-class
// failures are 422s: the UI renders them as disabled actions or inline
// warnings, never as fatal errors.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		httpx.Problem(w, http.StatusNotFound, "Session Not Found", err.Error())
	case errors.Is(err, ErrUnknownCurrency),
		errors.Is(err, ErrUnknownContact),
		errors.Is(err, ErrUnknownInvoice),
		errors.Is(err, ErrUnknownAccount),
		errors.Is(err, ErrCurrencyMismatch):
		httpx.Problem(w, http.StatusBadRequest, "Unknown Target", err.Error())
	case errors.Is(err, ErrAmountTooLarge),
		errors.Is(err, ErrAmountNotPositive),
		errors.Is(err, ErrPaymentDateRange),
		errors.Is(err, ErrNotesTooLong),
		errors.Is(err, ErrNoInvoicesEnabled),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrUnsavedChanges):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("payrun request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
