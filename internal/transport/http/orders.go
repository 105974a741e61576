package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quickmart/reserve/internal/domain"
)

// OrderCreator is the minimal interface needed to convert a hold.
type OrderCreator interface {
	CreateOrder(ctx context.Context, holdID string) (domain.Order, error)
}

// HandleCreateOrder returns an HTTP handler converting a hold into an order.
func HandleCreateOrder(svc OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.HoldID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "hold_id is required")
			return
		}

		order, err := svc.CreateOrder(r.Context(), req.HoldID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrHoldAlreadyUsed):
				writeError(w, http.StatusUnprocessableEntity, codeHoldAlreadyUsed, err.Error())
			case errors.Is(err, domain.ErrHoldExpired):
				writeError(w, http.StatusUnprocessableEntity, codeHoldExpired, err.Error())
			case errors.Is(err, domain.ErrHoldNotFound), errors.Is(err, domain.ErrInvalidID):
				writeError(w, http.StatusNotFound, codeHoldNotFound, domain.ErrHoldNotFound.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, createOrderResponse{
			OrderID:    order.ID,
			HoldID:     order.HoldID,
			ProductID:  order.ProductID,
			Qty:        order.Qty,
			TotalPrice: order.TotalPrice.StringFixed(2),
			Status:     string(order.Status),
		})
	}
}

type createOrderRequest struct {
	HoldID string `json:"hold_id"`
}

type createOrderResponse struct {
	OrderID    string `json:"order_id"`
	HoldID     string `json:"hold_id"`
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	TotalPrice string `json:"total_price"`
	Status     string `json:"status"`
}
