package audit

import (
	"context"
	"errors"
)

// ErrDuplicateKey is returned when an entry with the same idempotency key was
// already recorded.
var ErrDuplicateKey = errors.New("audit: duplicate entry key")

// Repository persists audit entries.
type Repository interface {
	Insert(ctx context.Context, e Entry) (int64, error)
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}
