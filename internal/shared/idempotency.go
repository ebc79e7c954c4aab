package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict indicates the key was already claimed, meaning the
// work it fences was already performed (or is in flight).
var ErrIdempotencyConflict = errors.New("idempotency key already claimed")

// IdempotencyStore fences at-least-once deliveries. The worker claims an
// entry key before transmitting an authorization; a redelivered task finds
// the key taken and skips the second submission.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store over the shared pool.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// CheckAndInsert claims the key within the given scope, returning
// ErrIdempotencyConflict when it was already claimed. A nil store performs no
// fencing, which keeps single-delivery setups and tests simple.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, scope string) error {
	if s == nil {
		return nil
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO payrun_idempotency_keys (key, scope, claimed_at) VALUES ($1, $2, $3)`,
		key, scope, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Delete releases a claimed key so a retry can claim it again. Called when
// the fenced work failed after the claim.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if s == nil || key == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM payrun_idempotency_keys WHERE key=$1`, key)
	return err
}

// Cleanup removes claims older than the retention window. Claims only need
// to outlive the task's retry schedule.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM payrun_idempotency_keys WHERE claimed_at < $1`,
		time.Now().Add(-olderThan))
	return err
}
