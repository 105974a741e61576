package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quickmart/reserve/internal/testutil"
)

func TestStockCache_RoundTrip(t *testing.T) {
	client := testutil.NewTestRedis(t)
	cache := NewStockCache(client, time.Minute)
	ctx := context.Background()
	productID := uuid.NewString()

	_, ok, err := cache.GetAvailable(ctx, productID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}

	if err := cache.SetAvailable(ctx, productID, 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := cache.GetAvailable(ctx, productID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || got != 7 {
		t.Fatalf("expected 7, got %d (ok=%v)", got, ok)
	}

	if err := cache.Invalidate(ctx, productID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, ok, err = cache.GetAvailable(ctx, productID)
	if err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if ok {
		t.Fatal("expected miss after invalidate")
	}
}

func TestStockCache_Expiry(t *testing.T) {
	client := testutil.NewTestRedis(t)
	cache := NewStockCache(client, 100*time.Millisecond)
	ctx := context.Background()
	productID := uuid.NewString()

	if err := cache.SetAvailable(ctx, productID, 3); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	_, ok, err := cache.GetAvailable(ctx, productID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected entry to expire")
	}
}
