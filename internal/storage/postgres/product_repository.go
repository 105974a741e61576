package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickmart/reserve/internal/domain"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ProductRepository) InTx(ctx context.Context) bool {
	return inTx(ctx)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (domain.Product, error) {
	const query = `
SELECT id, name, price, stock, reserved, sold, created_at, updated_at
FROM products
WHERE id = $1`
	return r.scanProduct(r.queryRow(ctx, query, id))
}

// GetForUpdate locks the product row; this is the serialization point for
// every reservation decision.
func (r *ProductRepository) GetForUpdate(ctx context.Context, id string) (domain.Product, error) {
	const query = `
SELECT id, name, price, stock, reserved, sold, created_at, updated_at
FROM products
WHERE id = $1
FOR UPDATE`
	return r.scanProduct(r.queryRow(ctx, query, id))
}

// GetAvailable reads availability without a lock, for display paths only.
func (r *ProductRepository) GetAvailable(ctx context.Context, id string) (int, error) {
	const query = `SELECT GREATEST(stock - reserved - sold, 0) FROM products WHERE id = $1`

	var available int
	if err := r.queryRow(ctx, query, id).Scan(&available); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return 0, domain.ErrProductNotFound
		}
		return 0, fmt.Errorf("get available: %w", err)
	}
	return available, nil
}

// AddReserved adjusts the reserved counter by delta (may be negative). The
// UPDATE takes the row lock when the caller does not already hold it.
func (r *ProductRepository) AddReserved(ctx context.Context, id string, delta int) error {
	const stmt = `UPDATE products SET reserved = reserved + $2, updated_at = NOW() WHERE id = $1`
	return r.adjustCounter(ctx, stmt, id, delta, "reserved")
}

// AddSold adjusts the sold counter by delta (may be negative).
func (r *ProductRepository) AddSold(ctx context.Context, id string, delta int) error {
	const stmt = `UPDATE products SET sold = sold + $2, updated_at = NOW() WHERE id = $1`
	return r.adjustCounter(ctx, stmt, id, delta, "sold")
}

func (r *ProductRepository) adjustCounter(ctx context.Context, stmt, id string, delta int, name string) error {
	tag, err := r.exec(ctx, stmt, id, delta)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("adjust %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Create(ctx context.Context, p domain.Product) error {
	const stmt = `
INSERT INTO products (id, name, price, stock, reserved, sold, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

	_, err := r.exec(ctx, stmt, p.ID, p.Name, p.Price, p.Stock, p.Reserved, p.Sold, p.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	const query = `
SELECT id, name, price, stock, reserved, sold, created_at, updated_at
FROM products
ORDER BY created_at ASC`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Reserved, &p.Sold, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Reserved, &p.Sold, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ProductRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *ProductRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
