package app

import (
	"context"
	"log/slog"

	"github.com/quickmart/reserve/internal/domain"
)

type ProductRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	InTx(ctx context.Context) bool
	GetByID(ctx context.Context, id string) (domain.Product, error)
	GetForUpdate(ctx context.Context, id string) (domain.Product, error)
	AddReserved(ctx context.Context, id string, delta int) error
	AddSold(ctx context.Context, id string, delta int) error
}

// StockLedger owns the reserved/sold counters of a product. Every mutation
// runs under the product row lock; callers that need the mutation atomic with
// their own decision (hold creation, webhook finalization) invoke the ledger
// inside their transaction and the ledger joins it.
type StockLedger struct {
	repo   ProductRepository
	logger *slog.Logger
}

func NewStockLedger(repo ProductRepository, logger *slog.Logger) *StockLedger {
	return &StockLedger{repo: repo, logger: logger}
}

func (l *StockLedger) IncrementReserved(ctx context.Context, productID string, qty int) error {
	return l.adjust(ctx, "reserved", productID, qty, l.repo.AddReserved)
}

func (l *StockLedger) DecrementReserved(ctx context.Context, productID string, qty int) error {
	return l.adjust(ctx, "reserved", productID, -qty, l.repo.AddReserved)
}

func (l *StockLedger) IncrementSold(ctx context.Context, productID string, qty int) error {
	return l.adjust(ctx, "sold", productID, qty, l.repo.AddSold)
}

func (l *StockLedger) DecrementSold(ctx context.Context, productID string, qty int) error {
	return l.adjust(ctx, "sold", productID, -qty, l.repo.AddSold)
}

// GetAvailable computes availability from the locked product row. Reservation
// decisions must call this inside the same transaction as the mutation that
// follows it; checking and reserving in two round trips loses updates.
func (l *StockLedger) GetAvailable(ctx context.Context, productID string) (int, error) {
	var available int
	err := l.run(ctx, func(txCtx context.Context) error {
		product, err := l.repo.GetForUpdate(txCtx, productID)
		if err != nil {
			return err
		}
		available = product.Available()
		return nil
	})
	return available, err
}

func (l *StockLedger) adjust(ctx context.Context, counter, productID string, delta int, apply func(context.Context, string, int) error) error {
	err := l.run(ctx, func(txCtx context.Context) error {
		return apply(txCtx, productID, delta)
	})
	if err != nil {
		return err
	}
	l.logger.DebugContext(ctx, "stock counter adjusted",
		"product_id", productID,
		"counter", counter,
		"delta", delta)
	return nil
}

// run executes fn in the caller's transaction when one is present; otherwise
// it opens its own and applies the transient-retry policy. When joined, retry
// is left to the outermost operation — re-running a statement inside an
// aborted transaction cannot succeed.
func (l *StockLedger) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if l.repo.InTx(ctx) {
		return fn(ctx)
	}
	return retryTransient(ctx, l.logger, func() error {
		return l.repo.WithTx(ctx, fn)
	})
}
