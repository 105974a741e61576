package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/quickmart/reserve/internal/app"
	"github.com/quickmart/reserve/internal/domain"
)

// ProductAdmin is the minimal interface needed for catalog management.
type ProductAdmin interface {
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// HandleCreateProduct returns an HTTP handler that adds a product with its
// fixed initial capacity.
func HandleCreateProduct(svc ProductAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidPrice, app.ErrInvalidPrice.Error())
			return
		}

		product, err := svc.CreateProduct(r.Context(), app.CreateProductInput{
			Name:  req.Name,
			Price: price,
			Stock: req.Stock,
		})
		if err != nil {
			switch {
			case errors.Is(err, app.ErrProductNameRequired):
				writeError(w, http.StatusBadRequest, codeProductNameRequired, err.Error())
			case errors.Is(err, app.ErrInvalidPrice):
				writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
			case errors.Is(err, app.ErrInvalidStock):
				writeError(w, http.StatusBadRequest, codeInvalidStock, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, adminProductResponse{
			ID:    product.ID,
			Name:  product.Name,
			Price: product.Price.StringFixed(2),
			Stock: product.Stock,
		})
	}
}

// HandleListProducts returns an HTTP handler listing the catalog with its
// ledger counters.
func HandleListProducts(svc ProductAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		out := make([]adminProductResponse, 0, len(products))
		for _, p := range products {
			out = append(out, adminProductResponse{
				ID:       p.ID,
				Name:     p.Name,
				Price:    p.Price.StringFixed(2),
				Stock:    p.Stock,
				Reserved: p.Reserved,
				Sold:     p.Sold,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type createProductRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
}

type adminProductResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Stock    int    `json:"stock"`
	Reserved int    `json:"reserved,omitempty"`
	Sold     int    `json:"sold,omitempty"`
}
