package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/quickmart/reserve/internal/clock"
	"github.com/quickmart/reserve/internal/domain"
)

type WebhookRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindLogByIdempotencyKey(ctx context.Context, key string) (*domain.WebhookLog, error)
	CreateLog(ctx context.Context, l domain.WebhookLog) error
	MarkLogProcessed(ctx context.Context, logID string, status domain.WebhookStatus, at time.Time) error
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, paymentReference string) error
}

type WebhookService struct {
	repo   WebhookRepository
	ledger *StockLedger
	cache  StockCacheInvalidator
	clock  clock.Clock
	logger *slog.Logger
}

func NewWebhookService(repo WebhookRepository, ledger *StockLedger, cache StockCacheInvalidator, clk clock.Clock, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		repo:   repo,
		ledger: ledger,
		cache:  cache,
		clock:  clk,
		logger: logger,
	}
}

type WebhookInput struct {
	IdempotencyKey   string
	OrderID          *string
	Status           string
	PaymentReference string
	Provider         string
}

type WebhookResult struct {
	Processed   bool
	Status      domain.WebhookStatus
	OrderID     string
	OrderStatus domain.OrderStatus
	Message     string
}

// ProcessWebhook finalizes an order from a payment provider delivery. One row
// per idempotency key gates the side effects: the first delivery moves stock,
// every later one returns the recorded result.
func (s *WebhookService) ProcessWebhook(ctx context.Context, in WebhookInput) (WebhookResult, error) {
	if in.IdempotencyKey == "" {
		return WebhookResult{}, domain.ErrIdempotencyKeyRequired
	}

	log, err := s.repo.FindLogByIdempotencyKey(ctx, in.IdempotencyKey)
	if err != nil {
		return WebhookResult{}, err
	}
	if log != nil && log.Processed() {
		return s.cachedResult(ctx, *log), nil
	}

	now := s.clock.Now()
	if log == nil {
		created := domain.WebhookLog{
			ID:             newID(),
			IdempotencyKey: in.IdempotencyKey,
			Provider:       in.Provider,
			OrderID:        in.OrderID,
			Status:         domain.WebhookStatusQueued,
			CreatedAt:      now,
		}
		if err := s.repo.CreateLog(ctx, created); err != nil {
			// Concurrent first deliveries collide on the unique key; the
			// loser adopts the winner's log instead of failing.
			if !errors.Is(err, domain.ErrIdempotencyConflict) {
				return WebhookResult{}, err
			}
			log, err = s.repo.FindLogByIdempotencyKey(ctx, in.IdempotencyKey)
			if err != nil {
				return WebhookResult{}, err
			}
			if log == nil {
				return WebhookResult{}, domain.ErrIdempotencyConflict
			}
			if log.Processed() {
				return s.cachedResult(ctx, *log), nil
			}
		} else {
			log = &created
		}
	}

	// Out-of-order delivery: the provider confirmed before the order existed.
	// Record the failure; the provider is expected to redeliver later.
	if in.OrderID == nil {
		s.logger.WarnContext(ctx, "webhook received without order id",
			"idempotency_key", in.IdempotencyKey)
		if err := s.repo.MarkLogProcessed(ctx, log.ID, domain.WebhookStatusFailure, now); err != nil {
			return WebhookResult{}, err
		}
		return WebhookResult{
			Processed: false,
			Status:    domain.WebhookStatusFailure,
			Message:   "Order ID is required",
		}, nil
	}

	var result WebhookResult
	var settledProduct string
	err = retryTransient(ctx, s.logger, func() error {
		settledProduct = ""
		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			order, err := s.repo.GetOrderForUpdate(txCtx, *in.OrderID)
			if err != nil {
				if errors.Is(err, domain.ErrOrderNotFound) || errors.Is(err, domain.ErrInvalidID) {
					s.logger.WarnContext(ctx, "webhook received for unknown order",
						"idempotency_key", in.IdempotencyKey,
						"order_id", *in.OrderID)
					if merr := s.repo.MarkLogProcessed(txCtx, log.ID, domain.WebhookStatusFailure, now); merr != nil {
						return merr
					}
					result = WebhookResult{
						Processed: false,
						Status:    domain.WebhookStatusFailure,
						Message:   "Order not found",
					}
					return nil
				}
				return err
			}

			// A second webhook for a settled order must not move stock again.
			if order.Final() {
				if merr := s.repo.MarkLogProcessed(txCtx, log.ID, domain.WebhookStatusSuccess, now); merr != nil {
					return merr
				}
				result = WebhookResult{
					Processed:   true,
					Status:      domain.WebhookStatusSuccess,
					OrderID:     order.ID,
					OrderStatus: order.Status,
					Message:     "Order already in final state",
				}
				return nil
			}

			success := in.Status == "success" || in.Status == "paid"
			if success {
				if err := s.settleSuccess(txCtx, order, in.PaymentReference); err != nil {
					return err
				}
				result = WebhookResult{
					Processed:   true,
					Status:      domain.WebhookStatusSuccess,
					OrderID:     order.ID,
					OrderStatus: domain.OrderStatusPaid,
				}
			} else {
				if err := s.settleFailure(txCtx, order); err != nil {
					return err
				}
				result = WebhookResult{
					Processed:   true,
					Status:      domain.WebhookStatusFailure,
					OrderID:     order.ID,
					OrderStatus: domain.OrderStatusCancelled,
				}
			}

			status := domain.WebhookStatusFailure
			if success {
				status = domain.WebhookStatusSuccess
			}
			if err := s.repo.MarkLogProcessed(txCtx, log.ID, status, now); err != nil {
				return err
			}
			settledProduct = order.ProductID
			return nil
		})
	})
	if err != nil {
		return WebhookResult{}, err
	}

	if settledProduct != "" {
		s.invalidateStock(ctx, settledProduct)
		s.logger.InfoContext(ctx, "webhook processed",
			"idempotency_key", in.IdempotencyKey,
			"order_id", result.OrderID,
			"status", result.Status)
	}
	return result, nil
}

// settleSuccess moves the order's quantity from reserved to sold; the two
// counter moves share the transaction so stock is never absent from both.
func (s *WebhookService) settleSuccess(ctx context.Context, order domain.Order, paymentReference string) error {
	if err := s.repo.SetOrderStatus(ctx, order.ID, domain.OrderStatusPaid, paymentReference); err != nil {
		return err
	}
	if err := s.ledger.DecrementReserved(ctx, order.ProductID, order.Qty); err != nil {
		return err
	}
	return s.ledger.IncrementSold(ctx, order.ProductID, order.Qty)
}

// settleFailure cancels the order and returns its quantity to available.
func (s *WebhookService) settleFailure(ctx context.Context, order domain.Order) error {
	if err := s.repo.SetOrderStatus(ctx, order.ID, domain.OrderStatusCancelled, ""); err != nil {
		return err
	}
	return s.ledger.DecrementReserved(ctx, order.ProductID, order.Qty)
}

func (s *WebhookService) cachedResult(ctx context.Context, log domain.WebhookLog) WebhookResult {
	s.logger.InfoContext(ctx, "webhook already processed, returning cached result",
		"idempotency_key", log.IdempotencyKey,
		"log_id", log.ID,
		"status", log.Status)

	result := WebhookResult{
		Processed: true,
		Status:    log.Status,
		Message:   "Webhook already processed",
	}
	if log.OrderID != nil {
		result.OrderID = *log.OrderID
	}
	return result
}

func (s *WebhookService) invalidateStock(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, productID); err != nil {
		s.logger.WarnContext(ctx, "stock cache invalidation failed",
			"product_id", productID,
			"error", err)
	}
}
