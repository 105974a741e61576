package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickmart/reserve/internal/domain"
)

type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *HoldRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Hold, error) {
	const query = `
SELECT id, product_id, qty, status, expires_at, used_at, COALESCE(idempotency_key, ''), created_at
FROM holds
WHERE idempotency_key = $1`

	var h domain.Hold
	err := r.queryRow(ctx, query, key).
		Scan(&h.ID, &h.ProductID, &h.Qty, &h.Status, &h.ExpiresAt, &h.UsedAt, &h.IdempotencyKey, &h.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find hold by idempotency key: %w", err)
	}
	return &h, nil
}

func (r *HoldRepository) Create(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO holds (id, product_id, qty, status, expires_at, idempotency_key, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`

	_, err := r.exec(ctx, stmt,
		hold.ID,
		hold.ProductID,
		hold.Qty,
		hold.Status,
		hold.ExpiresAt,
		hold.IdempotencyKey,
		hold.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyConflict
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

// FindExpired returns up to limit active holds whose expiry has passed.
// Callers must re-check the status under a lock before reclaiming.
func (r *HoldRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.Hold, error) {
	const query = `
SELECT id, product_id, qty, status, expires_at, used_at, COALESCE(idempotency_key, ''), created_at
FROM holds
WHERE status = 'active' AND expires_at <= $1
ORDER BY expires_at ASC
LIMIT $2`

	rows, err := r.query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("find expired holds: %w", err)
	}
	defer rows.Close()

	var holds []domain.Hold
	for rows.Next() {
		var h domain.Hold
		if err := rows.Scan(&h.ID, &h.ProductID, &h.Qty, &h.Status, &h.ExpiresAt, &h.UsedAt, &h.IdempotencyKey, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

// MarkExpired flips an active hold to expired. Returns false when the hold is
// no longer active, so concurrent reclaimers and converters cannot both win.
func (r *HoldRepository) MarkExpired(ctx context.Context, id string) (bool, error) {
	const stmt = `UPDATE holds SET status = 'expired' WHERE id = $1 AND status = 'active'`

	tag, err := r.exec(ctx, stmt, id)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("mark hold expired: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *HoldRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *HoldRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *HoldRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
