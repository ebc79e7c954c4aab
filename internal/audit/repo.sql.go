package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLRepository is the pgx implementation of Repository backed by the
// payrun_audit table.
type SQLRepository struct {
	pool *pgxpool.Pool
}

// NewSQLRepository constructs the repository.
func NewSQLRepository(pool *pgxpool.Pool) *SQLRepository {
	return &SQLRepository{pool: pool}
}

// Insert writes one entry. The entry key is unique: replays of the same
// save or submission are rejected with ErrDuplicateKey.
func (r *SQLRepository) Insert(ctx context.Context, e Entry) (int64, error) {
	metaJSON, err := json.Marshal(e.Meta)
	if err != nil {
		return 0, fmt.Errorf("audit: encode meta: %w", err)
	}
	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO payrun_audit (entry_key, merchant_id, payrun_id, actor, action, meta, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
		RETURNING id`,
		e.Key, e.MerchantID, e.PayrunID, e.Actor, e.Action, metaJSON, e.OccurredAt,
	).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_payrun_audit_entry_key" {
			return 0, ErrDuplicateKey
		}
		return 0, fmt.Errorf("audit: insert: %w", err)
	}
	return id, nil
}

// List returns entries matching the filter, most recent first.
func (r *SQLRepository) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	query := `
		SELECT id, entry_key, merchant_id, payrun_id, actor, action, meta, occurred_at
		FROM payrun_audit
		WHERE 1=1`
	args := []any{}
	idx := 1

	if filter.PayrunID != uuid.Nil {
		query += fmt.Sprintf(" AND payrun_id = $%d", idx)
		args = append(args, filter.PayrunID)
		idx++
	}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", idx)
		args = append(args, filter.Action)
		idx++
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND occurred_at >= $%d", idx)
		args = append(args, filter.From)
		idx++
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND occurred_at <= $%d", idx)
		args = append(args, filter.To)
		idx++
	}
	query += " ORDER BY occurred_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, filter.Limit)
		idx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", idx)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.Key, &e.MerchantID, &e.PayrunID, &e.Actor, &e.Action, &metaJSON, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &e.Meta)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many entries match the filter, ignoring limit and
// offset.
func (r *SQLRepository) Count(ctx context.Context, filter ListFilter) (int, error) {
	query := `SELECT COUNT(*) FROM payrun_audit WHERE 1=1`
	args := []any{}
	idx := 1

	if filter.PayrunID != uuid.Nil {
		query += fmt.Sprintf(" AND payrun_id = $%d", idx)
		args = append(args, filter.PayrunID)
		idx++
	}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", idx)
		args = append(args, filter.Action)
		idx++
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND occurred_at >= $%d", idx)
		args = append(args, filter.From)
		idx++
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND occurred_at <= $%d", idx)
		args = append(args, filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("audit: count: %w", err)
	}
	return total, nil
}

// Prune deletes entries older than the cutoff and reports how many were
// removed.
func (r *SQLRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payrun_audit WHERE occurred_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("audit: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
