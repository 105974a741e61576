package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quickmart/reserve/internal/testutil"
)

func setupDB(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)
	return ctx, pool
}

func seedProduct(t *testing.T, ctx context.Context, pool *pgxpool.Pool, stock int) string {
	t.Helper()
	return testutil.InsertProduct(t, ctx, pool, "Widget", decimal.NewFromFloat(19.99), stock)
}

// pgNow matches the timestamptz precision Postgres stores.
func pgNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
