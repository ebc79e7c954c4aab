package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/paydesk-hq/paydesk/internal/audit"
	jobmetrics "github.com/paydesk-hq/paydesk/internal/jobs"
	"github.com/paydesk-hq/paydesk/internal/payrun"
	"github.com/paydesk-hq/paydesk/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuthorizationSubmit transmits a composed authorization request to
	// the payments API.
	TaskAuthorizationSubmit = "payrun:authorize"
	// TaskAuditRecord writes one audit entry asynchronously.
	TaskAuditRecord = "audit:record"
	// TaskAuditPrune removes audit entries past the retention window.
	TaskAuditPrune = "audit:prune"
)

// AuthorizationSubmitPayload carries a composed request plus actor context.
type AuthorizationSubmitPayload struct {
	Request    payrun.AuthorizationRequest `json:"request"`
	MerchantID uuid.UUID                   `json:"merchantId"`
	Actor      string                      `json:"actor"`
	EntryKey   uuid.UUID                   `json:"entryKey"`
}

// NewAuthorizationSubmitTask constructs an Asynq task. Submissions retry
// with backoff; the entry key keeps the audit record idempotent across
// retries.
func NewAuthorizationSubmitTask(payload AuthorizationSubmitPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuthorizationSubmit, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
	), nil
}

// AuditRecordPayload wraps one audit entry.
type AuditRecordPayload struct {
	Entry audit.Entry `json:"entry"`
}

// NewAuditRecordTask constructs an Asynq task for an audit write.
func NewAuditRecordTask(entry audit.Entry) (*asynq.Task, error) {
	data, err := json.Marshal(AuditRecordPayload{Entry: entry})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data, asynq.Queue(QueueDefault)), nil
}

// AuditPrunePayload carries the retention cutoff for the prune cron.
type AuditPrunePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAuditPruneTask constructs the scheduled prune task.
func NewAuditPruneTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPrunePayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data, asynq.Queue(QueueDefault)), nil
}

// Submitter transmits authorization requests to the payments API.
type Submitter interface {
	SubmitAuthorization(ctx context.Context, req payrun.AuthorizationRequest) error
}

// AuditPruner deletes audit entries older than the cutoff.
type AuditPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Handlers bundles the dependencies the task handlers need.
type Handlers struct {
	Logger      *slog.Logger
	Submitter   Submitter
	Audit       *audit.Service
	Pruner      AuditPruner
	Metrics     *jobmetrics.Metrics
	Idempotency *shared.IdempotencyStore
}

// HandleAuthorizationSubmit processes TaskAuthorizationSubmit tasks. A
// transport failure is returned so Asynq retries; the audit record is only
// written after a successful round-trip.
func (h Handlers) HandleAuthorizationSubmit(ctx context.Context, t *asynq.Task) error {
	var payload AuthorizationSubmitPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.Metrics.Track("authorization_submit")

	// Queue deliveries are at-least-once; the entry key fences off a second
	// submission of the same composed request.
	if h.Idempotency != nil {
		switch err := h.Idempotency.CheckAndInsert(ctx, payload.EntryKey.String(), TaskAuthorizationSubmit); {
		case errors.Is(err, shared.ErrIdempotencyConflict):
			h.Logger.Info("authorization already submitted",
				slog.String("payrun", payload.Request.PayrunID.String()))
			return tracker.End(nil)
		case err != nil:
			return tracker.End(err)
		}
	}

	err := h.Submitter.SubmitAuthorization(ctx, payload.Request)
	for currency := range payload.Request.TotalByCurrency() {
		h.Metrics.AddSubmission(string(currency), err == nil)
	}
	if err != nil {
		h.Logger.Error("submit authorization",
			slog.String("payrun", payload.Request.PayrunID.String()),
			slog.Any("error", err))
		// Release the key so the retry is not fenced out.
		if h.Idempotency != nil {
			if delErr := h.Idempotency.Delete(ctx, payload.EntryKey.String()); delErr != nil {
				h.Logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		return tracker.End(err)
	}

	entry := audit.Entry{
		Key:        payload.EntryKey,
		MerchantID: payload.MerchantID,
		PayrunID:   payload.Request.PayrunID,
		Actor:      payload.Actor,
		Action:     audit.ActionAuthorize,
		Meta: map[string]any{
			"invoiceCount": len(payload.Request.Invoices),
			"paymentDate":  payload.Request.PaymentDate.Format("2006-01-02"),
		},
	}
	if err := h.Audit.Record(ctx, entry); err != nil {
		h.Logger.Warn("record authorization audit", slog.Any("error", err))
	}
	return tracker.End(nil)
}

// HandleAuditRecord processes TaskAuditRecord tasks.
func (h Handlers) HandleAuditRecord(ctx context.Context, t *asynq.Task) error {
	var payload AuditRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.Metrics.Track("audit_record")
	return tracker.End(h.Audit.Record(ctx, payload.Entry))
}

// HandleAuditPrune processes the scheduled retention prune.
func (h Handlers) HandleAuditPrune(ctx context.Context, t *asynq.Task) error {
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if h.Pruner == nil || payload.Retention <= 0 {
		return nil
	}
	tracker := h.Metrics.Track("audit_prune")
	removed, err := h.Pruner.Prune(ctx, time.Now().Add(-payload.Retention))
	if err == nil && removed > 0 {
		h.Logger.Info("pruned audit entries", slog.Int64("removed", removed))
	}
	// Idempotency claims only need to outlive the submit task's retry
	// schedule; a week is generous.
	if cleanupErr := h.Idempotency.Cleanup(ctx, 7*24*time.Hour); cleanupErr != nil {
		h.Logger.Warn("cleanup idempotency keys", slog.Any("error", cleanupErr))
	}
	return tracker.End(err)
}
