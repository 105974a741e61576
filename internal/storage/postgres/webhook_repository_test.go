package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quickmart/reserve/internal/domain"
	"github.com/quickmart/reserve/internal/testutil"
)

func TestWebhookRepository_Logs(t *testing.T) {
	ctx, pool := setupDB(t)
	repo := NewWebhookRepository(pool)
	now := pgNow()

	orderID := uuid.NewString()
	log := domain.WebhookLog{
		ID:             uuid.NewString(),
		IdempotencyKey: "wh-1",
		Provider:       "stripe",
		OrderID:        &orderID,
		Status:         domain.WebhookStatusQueued,
		CreatedAt:      now,
	}
	if err := repo.CreateLog(ctx, log); err != nil {
		t.Fatalf("create log: %v", err)
	}

	got, err := repo.FindLogByIdempotencyKey(ctx, "wh-1")
	if err != nil {
		t.Fatalf("find log: %v", err)
	}
	if got == nil {
		t.Fatal("expected log")
	}
	if got.Status != domain.WebhookStatusQueued || got.Provider != "stripe" {
		t.Fatalf("unexpected log: %+v", got)
	}
	if got.OrderID == nil || *got.OrderID != orderID {
		t.Fatalf("expected order id %s, got %v", orderID, got.OrderID)
	}
	if got.Processed() {
		t.Fatal("queued log must not report processed")
	}

	if err := repo.MarkLogProcessed(ctx, log.ID, domain.WebhookStatusSuccess, now); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	got, err = repo.FindLogByIdempotencyKey(ctx, "wh-1")
	if err != nil {
		t.Fatalf("find log: %v", err)
	}
	if got.Status != domain.WebhookStatusSuccess || got.ProcessedAt == nil {
		t.Fatalf("unexpected log after processing: %+v", got)
	}
	if !got.Processed() {
		t.Fatal("expected processed")
	}
}

func TestWebhookRepository_CreateLog_DuplicateKey(t *testing.T) {
	ctx, pool := setupDB(t)
	repo := NewWebhookRepository(pool)
	now := pgNow()

	newLog := func() domain.WebhookLog {
		return domain.WebhookLog{
			ID:             uuid.NewString(),
			IdempotencyKey: "wh-dup",
			Status:         domain.WebhookStatusQueued,
			CreatedAt:      now,
		}
	}

	if err := repo.CreateLog(ctx, newLog()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := repo.CreateLog(ctx, newLog())
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestWebhookRepository_CreateLog_UnknownOrderID(t *testing.T) {
	ctx, pool := setupDB(t)
	repo := NewWebhookRepository(pool)
	now := pgNow()

	// The provider can reference an order we have never seen; the log row
	// must still land so replays with the same key short-circuit.
	bogus := "not-even-a-uuid"
	log := domain.WebhookLog{
		ID:             uuid.NewString(),
		IdempotencyKey: "wh-orphan",
		OrderID:        &bogus,
		Status:         domain.WebhookStatusQueued,
		CreatedAt:      now,
	}
	if err := repo.CreateLog(ctx, log); err != nil {
		t.Fatalf("create log: %v", err)
	}

	got, err := repo.FindLogByIdempotencyKey(ctx, "wh-orphan")
	if err != nil {
		t.Fatalf("find log: %v", err)
	}
	if got.OrderID == nil || *got.OrderID != bogus {
		t.Fatalf("expected order id %q, got %v", bogus, got.OrderID)
	}
}

func TestWebhookRepository_Orders(t *testing.T) {
	ctx, pool := setupDB(t)
	repo := NewWebhookRepository(pool)
	orders := NewOrderRepository(pool)
	productID := seedProduct(t, ctx, pool, 10)
	now := pgNow()

	holdID := testutil.InsertHold(t, ctx, pool, domain.Hold{
		ProductID: productID, Qty: 2,
		Status: domain.HoldStatusActive, ExpiresAt: now.Add(time.Minute),
	})
	order := domain.Order{
		ID:         uuid.NewString(),
		HoldID:     holdID,
		ProductID:  productID,
		Qty:        2,
		TotalPrice: decimal.NewFromFloat(39.98),
		Status:     domain.OrderStatusPendingPayment,
		CreatedAt:  now,
	}
	if err := orders.Create(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	got, err := repo.GetOrderForUpdate(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != domain.OrderStatusPendingPayment || got.Final() {
		t.Fatalf("unexpected order: %+v", got)
	}

	if err := repo.SetOrderStatus(ctx, order.ID, domain.OrderStatusPaid, "pay_123"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, err = repo.GetOrderForUpdate(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != domain.OrderStatusPaid || got.PaymentReference != "pay_123" {
		t.Fatalf("unexpected order after settle: %+v", got)
	}
	if !got.Final() {
		t.Fatal("paid order must be final")
	}

	// An empty reference must not erase the stored one.
	if err := repo.SetOrderStatus(ctx, order.ID, domain.OrderStatusPaid, ""); err != nil {
		t.Fatalf("set status again: %v", err)
	}
	got, err = repo.GetOrderForUpdate(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.PaymentReference != "pay_123" {
		t.Fatalf("payment reference lost: %+v", got)
	}
}

func TestWebhookRepository_GetOrderForUpdate_Errors(t *testing.T) {
	ctx, pool := setupDB(t)
	repo := NewWebhookRepository(pool)

	_, err := repo.GetOrderForUpdate(ctx, uuid.NewString())
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	_, err = repo.GetOrderForUpdate(ctx, "not-a-uuid")
	if !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}
