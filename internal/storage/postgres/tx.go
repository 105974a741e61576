package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickmart/reserve/internal/domain"
)

type txKey struct{}

// withTx runs fn inside a transaction carried on the context. When the
// context already holds a transaction, fn joins it and commit/rollback stay
// with the outermost caller.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return markTransient(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return markTransient(err)
	}
	return nil
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

func inTx(ctx context.Context) bool {
	return txFromContext(ctx) != nil
}

// markTransient tags deadlocks and lock-wait timeouts so callers can apply
// the bounded retry policy without importing pgconn.
func markTransient(err error) error {
	if isDeadlock(err) {
		return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}
	return err
}

func isDeadlock(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 40P01 deadlock_detected, 55P03 lock_not_available
	return pgErr.Code == "40P01" || pgErr.Code == "55P03"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
