package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickmart/reserve/internal/app"
	"github.com/quickmart/reserve/internal/domain"
)

// ProductGetter is the minimal interface needed for the product read path.
type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (app.ProductView, error)
}

// HandleGetProduct returns an HTTP handler for the display read of a product.
// Availability here may lag a few seconds behind the ledger.
func HandleGetProduct(svc ProductGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, domain.ErrInvalidID) {
				writeError(w, http.StatusNotFound, codeProductNotFound, domain.ErrProductNotFound.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, productResponse{
			ID:             product.ID,
			Name:           product.Name,
			Price:          product.Price.StringFixed(2),
			AvailableStock: product.AvailableStock,
			TotalStock:     product.TotalStock,
		})
	}
}

type productResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Price          string `json:"price"`
	AvailableStock int    `json:"available_stock"`
	TotalStock     int    `json:"total_stock"`
}
