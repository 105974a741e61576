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

// WebhookRepository bundles the webhook-log and order access needed to
// finalize a payment inside one transaction.
type WebhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

func (r *WebhookRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *WebhookRepository) FindLogByIdempotencyKey(ctx context.Context, key string) (*domain.WebhookLog, error) {
	const query = `
SELECT id, idempotency_key, COALESCE(provider, ''), order_id, status, processed_at, created_at
FROM payment_webhook_logs
WHERE idempotency_key = $1`

	var l domain.WebhookLog
	err := r.queryRow(ctx, query, key).
		Scan(&l.ID, &l.IdempotencyKey, &l.Provider, &l.OrderID, &l.Status, &l.ProcessedAt, &l.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find webhook log: %w", err)
	}
	return &l, nil
}

func (r *WebhookRepository) CreateLog(ctx context.Context, l domain.WebhookLog) error {
	const stmt = `
INSERT INTO payment_webhook_logs (id, idempotency_key, provider, order_id, status, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)`

	_, err := r.exec(ctx, stmt, l.ID, l.IdempotencyKey, l.Provider, l.OrderID, l.Status, l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyConflict
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create webhook log: %w", err)
	}
	return nil
}

func (r *WebhookRepository) MarkLogProcessed(ctx context.Context, logID string, status domain.WebhookStatus, at time.Time) error {
	const stmt = `UPDATE payment_webhook_logs SET status = $2, processed_at = $3 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, logID, status, at)
	if err != nil {
		return fmt.Errorf("mark webhook log processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark webhook log processed: log %s not found", logID)
	}
	return nil
}

// GetOrderForUpdate locks the order row so duplicate deliveries for the same
// order are strictly ordered.
func (r *WebhookRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `
SELECT id, hold_id, product_id, qty, total_price, status, COALESCE(payment_reference, ''), created_at, updated_at
FROM orders
WHERE id = $1
FOR UPDATE`

	var o domain.Order
	err := r.queryRow(ctx, query, orderID).
		Scan(&o.ID, &o.HoldID, &o.ProductID, &o.Qty, &o.TotalPrice, &o.Status, &o.PaymentReference, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *WebhookRepository) SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, paymentReference string) error {
	const stmt = `
UPDATE orders
SET status = $2, payment_reference = COALESCE(NULLIF($3, ''), payment_reference), updated_at = NOW()
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, status, paymentReference)
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *WebhookRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *WebhookRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
