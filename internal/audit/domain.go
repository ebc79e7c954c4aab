// Package audit records what merchants changed and submitted on their
// payruns. Save-time change sets land here; they are informational and are
// never transmitted to the payments API.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action enumerates the recorded payrun actions.
type Action string

const (
	ActionSave      Action = "payrun.save"
	ActionAuthorize Action = "payrun.authorize"
	ActionRename    Action = "payrun.rename"
)

// Entry is one audit record.
type Entry struct {
	ID         int64          `json:"id"`
	Key        uuid.UUID      `json:"key"`
	MerchantID uuid.UUID      `json:"merchantId"`
	PayrunID   uuid.UUID      `json:"payrunId"`
	Actor      string         `json:"actor"`
	Action     Action         `json:"action"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// ListFilter narrows the audit listing.
type ListFilter struct {
	PayrunID uuid.UUID
	Action   Action
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
