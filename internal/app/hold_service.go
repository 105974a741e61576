package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/quickmart/reserve/internal/clock"
	"github.com/quickmart/reserve/internal/domain"
)

type HoldRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Hold, error)
	Create(ctx context.Context, hold domain.Hold) error
	FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.Hold, error)
	MarkExpired(ctx context.Context, id string) (bool, error)
}

// StockCacheInvalidator drops the cached display availability of a product.
// Invalidation is best effort; the cache is never authoritative.
type StockCacheInvalidator interface {
	Invalidate(ctx context.Context, productID string) error
}

type HoldService struct {
	repo    HoldRepository
	ledger  *StockLedger
	cache   StockCacheInvalidator
	clock   clock.Clock
	logger  *slog.Logger
	holdTTL time.Duration
}

const defaultHoldTTL = 5 * time.Minute

func NewHoldService(repo HoldRepository, ledger *StockLedger, cache StockCacheInvalidator, clk clock.Clock, logger *slog.Logger, opts ...HoldServiceOption) *HoldService {
	svc := &HoldService{
		repo:    repo,
		ledger:  ledger,
		cache:   cache,
		clock:   clk,
		logger:  logger,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HoldServiceOption func(*HoldService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

type CreateHoldInput struct {
	ProductID      string
	Qty            int
	IdempotencyKey string
}

// CreateHold reserves quantity against the product under its row lock. With
// an idempotency key, a retry while the original hold is still active returns
// that hold without reserving again.
func (s *HoldService) CreateHold(ctx context.Context, in CreateHoldInput) (domain.Hold, error) {
	if in.Qty <= 0 {
		return domain.Hold{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()

	if in.IdempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, in.IdempotencyKey)
		if err != nil {
			return domain.Hold{}, err
		}
		if existing != nil && existing.ActiveAt(now) {
			s.logger.InfoContext(ctx, "hold creation skipped, idempotency key already active",
				"idempotency_key", in.IdempotencyKey,
				"hold_id", existing.ID)
			return *existing, nil
		}
	}

	var result domain.Hold
	err := retryTransient(ctx, s.logger, func() error {
		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			// The row lock taken here is the serialization point: the second
			// of two concurrent holds always observes the first's reservation.
			available, err := s.ledger.GetAvailable(txCtx, in.ProductID)
			if err != nil {
				return err
			}
			if in.Qty > available {
				return &domain.InsufficientStockError{Available: available, Requested: in.Qty}
			}

			hold := domain.Hold{
				ID:             newID(),
				ProductID:      in.ProductID,
				Qty:            in.Qty,
				Status:         domain.HoldStatusActive,
				ExpiresAt:      now.Add(s.holdTTL),
				IdempotencyKey: in.IdempotencyKey,
				CreatedAt:      now,
			}

			if err := s.repo.Create(txCtx, hold); err != nil {
				// Concurrent first requests with the same key race on the
				// unique constraint; the loser returns the winner's hold.
				if errors.Is(err, domain.ErrIdempotencyConflict) && in.IdempotencyKey != "" {
					existing, ferr := s.repo.FindByIdempotencyKey(txCtx, in.IdempotencyKey)
					if ferr != nil {
						return ferr
					}
					if existing != nil {
						result = *existing
						return nil
					}
				}
				return err
			}

			if err := s.ledger.IncrementReserved(txCtx, in.ProductID, in.Qty); err != nil {
				return err
			}

			result = hold
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.logger.WarnContext(ctx, "hold creation failed, insufficient stock",
				"product_id", in.ProductID,
				"requested_qty", in.Qty)
		}
		return domain.Hold{}, err
	}

	s.invalidateStock(ctx, in.ProductID)
	s.logger.InfoContext(ctx, "hold created",
		"hold_id", result.ID,
		"product_id", result.ProductID,
		"qty", result.Qty,
		"expires_at", result.ExpiresAt)
	return result, nil
}

// ReleaseExpiredHolds reclaims up to limit abandoned holds. Each hold is
// processed in its own transaction behind a status guard, so a hold converted
// between the scan and the reclaim is left alone. One hold failing does not
// abort the batch; it stays active for a later sweep.
func (s *HoldService) ReleaseExpiredHolds(ctx context.Context, limit int) (int, error) {
	now := s.clock.Now()
	expired, err := s.repo.FindExpired(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, hold := range expired {
		reclaimed := false
		err := retryTransient(ctx, s.logger, func() error {
			reclaimed = false
			return s.repo.WithTx(ctx, func(txCtx context.Context) error {
				ok, err := s.repo.MarkExpired(txCtx, hold.ID)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := s.ledger.DecrementReserved(txCtx, hold.ProductID, hold.Qty); err != nil {
					return err
				}
				reclaimed = true
				return nil
			})
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to release expired hold",
				"hold_id", hold.ID,
				"error", err)
			continue
		}
		if reclaimed {
			released++
			s.invalidateStock(ctx, hold.ProductID)
			s.logger.InfoContext(ctx, "expired hold released",
				"hold_id", hold.ID,
				"product_id", hold.ProductID,
				"qty", hold.Qty)
		}
	}

	if released > 0 {
		s.logger.InfoContext(ctx, "expired holds released",
			"count", released,
			"total_checked", len(expired))
	}
	return released, nil
}

func (s *HoldService) invalidateStock(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, productID); err != nil {
		s.logger.WarnContext(ctx, "stock cache invalidation failed",
			"product_id", productID,
			"error", err)
	}
}
