package app

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/quickmart/reserve/internal/domain"
)

// ProductReader is the read-only product access used by display endpoints.
type ProductReader interface {
	GetByID(ctx context.Context, id string) (domain.Product, error)
	GetAvailable(ctx context.Context, id string) (int, error)
}

// StockCache is a short-TTL read-through cache for display availability.
// Entries may be briefly stale; reservation decisions never read it.
type StockCache interface {
	StockCacheInvalidator
	GetAvailable(ctx context.Context, productID string) (int, bool, error)
	SetAvailable(ctx context.Context, productID string, qty int) error
}

type ProductService struct {
	repo   ProductReader
	cache  StockCache
	logger *slog.Logger
}

func NewProductService(repo ProductReader, cache StockCache, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

type ProductView struct {
	ID             string
	Name           string
	Price          decimal.Decimal
	AvailableStock int
	TotalStock     int
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (ProductView, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ProductView{}, err
	}

	available, err := s.AvailableStock(ctx, id)
	if err != nil {
		return ProductView{}, err
	}

	return ProductView{
		ID:             product.ID,
		Name:           product.Name,
		Price:          product.Price,
		AvailableStock: available,
		TotalStock:     product.Stock,
	}, nil
}

// AvailableStock serves display reads through the cache. A cache failure
// falls back to the store rather than failing the read.
func (s *ProductService) AvailableStock(ctx context.Context, id string) (int, error) {
	if s.cache != nil {
		available, ok, err := s.cache.GetAvailable(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "stock cache read failed", "product_id", id, "error", err)
		} else if ok {
			return available, nil
		}
	}

	available, err := s.repo.GetAvailable(ctx, id)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetAvailable(ctx, id, available); err != nil {
			s.logger.WarnContext(ctx, "stock cache write failed", "product_id", id, "error", err)
		}
	}
	return available, nil
}
