package jobs

import (
	"context"

	"github.com/paydesk-hq/paydesk/internal/audit"
	"github.com/paydesk-hq/paydesk/internal/payrun"
)

// Dispatcher adapts the queue client to the payrun service.
type Dispatcher struct {
	client *Client
}

// NewDispatcher wraps a queue client.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// DispatchAuthorization enqueues a composed authorization request for
// background submission.
func (d *Dispatcher) DispatchAuthorization(ctx context.Context, dispatch payrun.AuthorizationDispatch) error {
	_, err := d.client.EnqueueAuthorizationSubmit(ctx, AuthorizationSubmitPayload{
		Request:    dispatch.Request,
		MerchantID: dispatch.MerchantID,
		Actor:      dispatch.Actor,
		EntryKey:   dispatch.EntryKey,
	})
	return err
}

// DispatchAudit enqueues an asynchronous audit write.
func (d *Dispatcher) DispatchAudit(ctx context.Context, entry audit.Entry) error {
	_, err := d.client.EnqueueAuditRecord(ctx, AuditRecordPayload{Entry: entry})
	return err
}
