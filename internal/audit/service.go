package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service records and lists payrun audit entries.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs the audit service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record persists one entry, generating key and timestamp when absent.
// Duplicate keys are logged and swallowed: a replayed save must not fail the
// caller.
func (s *Service) Record(ctx context.Context, e Entry) error {
	if e.Key == uuid.Nil {
		e.Key = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	if _, err := s.repo.Insert(ctx, e); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			s.logger.Warn("audit entry replayed",
				slog.String("key", e.Key.String()),
				slog.String("action", string(e.Action)))
			return nil
		}
		return err
	}
	return nil
}

// List returns entries matching the filter plus the total match count for
// pagination.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
