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

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetHoldForUpdate locks the hold row so two conversions of the same hold are
// strictly ordered.
func (r *OrderRepository) GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error) {
	const query = `
SELECT id, product_id, qty, status, expires_at, used_at, COALESCE(idempotency_key, ''), created_at
FROM holds
WHERE id = $1
FOR UPDATE`

	var h domain.Hold
	err := r.queryRow(ctx, query, holdID).
		Scan(&h.ID, &h.ProductID, &h.Qty, &h.Status, &h.ExpiresAt, &h.UsedAt, &h.IdempotencyKey, &h.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Hold{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Hold{}, domain.ErrHoldNotFound
		}
		return domain.Hold{}, fmt.Errorf("get hold: %w", err)
	}
	return h, nil
}

func (r *OrderRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	const query = `
SELECT id, name, price, stock, reserved, sold, created_at, updated_at
FROM products
WHERE id = $1`

	var p domain.Product
	err := r.queryRow(ctx, query, productID).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Reserved, &p.Sold, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, hold_id, product_id, qty, total_price, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

	_, err := r.exec(ctx, stmt,
		order.ID,
		order.HoldID,
		order.ProductID,
		order.Qty,
		order.TotalPrice,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		// hold_id is unique: a second order for the same hold means the hold
		// was already spent.
		if isUniqueViolation(err) {
			return domain.ErrHoldAlreadyUsed
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// MarkHoldUsed flips an active hold to used, stamping used_at. Returns false
// when the hold was no longer active at flip time.
func (r *OrderRepository) MarkHoldUsed(ctx context.Context, holdID string, usedAt time.Time) (bool, error) {
	const stmt = `UPDATE holds SET status = 'used', used_at = $2 WHERE id = $1 AND status = 'active'`

	tag, err := r.exec(ctx, stmt, holdID, usedAt)
	if err != nil {
		return false, fmt.Errorf("mark hold used: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepository) GetByHoldID(ctx context.Context, holdID string) (*domain.Order, error) {
	const query = `
SELECT id, hold_id, product_id, qty, total_price, status, COALESCE(payment_reference, ''), created_at, updated_at
FROM orders
WHERE hold_id = $1`

	var o domain.Order
	err := r.queryRow(ctx, query, holdID).
		Scan(&o.ID, &o.HoldID, &o.ProductID, &o.Qty, &o.TotalPrice, &o.Status, &o.PaymentReference, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by hold: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
