package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/quickmart/reserve/internal/clock"
	"github.com/quickmart/reserve/internal/domain"
)

var (
	ErrProductNameRequired = errors.New("product name required")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidStock        = errors.New("invalid stock")
)

type AdminRepository interface {
	Create(ctx context.Context, p domain.Product) error
	List(ctx context.Context) ([]domain.Product, error)
}

// AdminService manages the product catalog; the capacity set here is fixed
// for the product's lifetime and only the counters move afterwards.
type AdminService struct {
	repo   AdminRepository
	clock  clock.Clock
	logger *slog.Logger
}

func NewAdminService(repo AdminRepository, clk clock.Clock, logger *slog.Logger) *AdminService {
	return &AdminService{
		repo:   repo,
		clock:  clk,
		logger: logger,
	}
}

type CreateProductInput struct {
	Name  string
	Price decimal.Decimal
	Stock int
}

func (s *AdminService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if in.Name == "" {
		return domain.Product{}, ErrProductNameRequired
	}
	if in.Price.IsNegative() {
		return domain.Product{}, ErrInvalidPrice
	}
	if in.Stock < 0 {
		return domain.Product{}, ErrInvalidStock
	}

	now := s.clock.Now()
	product := domain.Product{
		ID:        newID(),
		Name:      in.Name,
		Price:     in.Price,
		Stock:     in.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return domain.Product{}, err
	}

	s.logger.InfoContext(ctx, "product created",
		"product_id", product.ID,
		"name", product.Name,
		"stock", product.Stock)
	return product, nil
}

func (s *AdminService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}
