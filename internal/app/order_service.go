package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickmart/reserve/internal/clock"
	"github.com/quickmart/reserve/internal/domain"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	Create(ctx context.Context, order domain.Order) error
	MarkHoldUsed(ctx context.Context, holdID string, usedAt time.Time) (bool, error)
	GetByHoldID(ctx context.Context, holdID string) (*domain.Order, error)
}

type OrderService struct {
	repo   OrderRepository
	clock  clock.Clock
	logger *slog.Logger
}

func NewOrderService(repo OrderRepository, clk clock.Clock, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:   repo,
		clock:  clk,
		logger: logger,
	}
}

// CreateOrder converts an active hold into a pending-payment order, exactly
// once. Uniqueness of hold_id backs up the active-status guard, so even a
// racing conversion that slips past the lock ends in ErrHoldAlreadyUsed.
func (s *OrderService) CreateOrder(ctx context.Context, holdID string) (domain.Order, error) {
	now := s.clock.Now()
	var result domain.Order

	err := retryTransient(ctx, s.logger, func() error {
		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			hold, err := s.repo.GetHoldForUpdate(txCtx, holdID)
			if err != nil {
				return err
			}

			// used before expired: a used hold signals a duplicate creation
			// attempt, not a timing problem.
			if hold.Status == domain.HoldStatusUsed {
				s.logger.WarnContext(ctx, "order creation failed, hold already used", "hold_id", holdID)
				return domain.ErrHoldAlreadyUsed
			}
			if !hold.ActiveAt(now) {
				s.logger.WarnContext(ctx, "order creation failed, hold expired or inactive",
					"hold_id", holdID,
					"status", hold.Status,
					"expires_at", hold.ExpiresAt)
				return domain.ErrHoldExpired
			}

			product, err := s.repo.GetProduct(txCtx, hold.ProductID)
			if err != nil {
				return err
			}

			order := domain.Order{
				ID:         newID(),
				HoldID:     hold.ID,
				ProductID:  hold.ProductID,
				Qty:        hold.Qty,
				TotalPrice: product.Price.Mul(decimal.NewFromInt(int64(hold.Qty))),
				Status:     domain.OrderStatusPendingPayment,
				CreatedAt:  now,
				UpdatedAt:  now,
			}

			if err := s.repo.Create(txCtx, order); err != nil {
				return err
			}

			flipped, err := s.repo.MarkHoldUsed(txCtx, hold.ID, now)
			if err != nil {
				return err
			}
			if !flipped {
				return domain.ErrHoldAlreadyUsed
			}

			result = order
			return nil
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", result.ID,
		"hold_id", result.HoldID,
		"product_id", result.ProductID,
		"qty", result.Qty,
		"total_price", result.TotalPrice)
	return result, nil
}
