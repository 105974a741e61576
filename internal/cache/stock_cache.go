package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stockKeyPrefix  = "product:stock:"
	DefaultStockTTL = 10 * time.Second
)

// StockCache keeps display availability per product for a few seconds.
// It is advisory only; mutating flows re-derive availability from a locked
// row and never consult it.
type StockCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStockCache(client *redis.Client, ttl time.Duration) *StockCache {
	if ttl <= 0 {
		ttl = DefaultStockTTL
	}
	return &StockCache{client: client, ttl: ttl}
}

func (c *StockCache) GetAvailable(ctx context.Context, productID string) (int, bool, error) {
	val, err := c.client.Get(ctx, stockKeyPrefix+productID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	available, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}
	return available, true, nil
}

func (c *StockCache) SetAvailable(ctx context.Context, productID string, qty int) error {
	return c.client.Set(ctx, stockKeyPrefix+productID, qty, c.ttl).Err()
}

func (c *StockCache) Invalidate(ctx context.Context, productID string) error {
	return c.client.Del(ctx, stockKeyPrefix+productID).Err()
}
