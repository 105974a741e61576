package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/quickmart/reserve/internal/app"
	"github.com/quickmart/reserve/internal/domain"
)

// HoldCreator is the minimal interface needed to create a hold.
type HoldCreator interface {
	CreateHold(ctx context.Context, in app.CreateHoldInput) (domain.Hold, error)
}

// HandleCreateHold returns an HTTP handler for reserving stock.
func HandleCreateHold(svc HoldCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createHoldRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.ProductID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "product_id is required")
			return
		}
		if req.Qty <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQuantity, domain.ErrInvalidQuantity.Error())
			return
		}

		hold, err := svc.CreateHold(r.Context(), app.CreateHoldInput{
			ProductID:      req.ProductID,
			Qty:            req.Qty,
			IdempotencyKey: req.IdempotencyKey,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInsufficientStock):
				writeError(w, http.StatusUnprocessableEntity, codeInsufficientStock, err.Error())
			case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrInvalidID):
				writeError(w, http.StatusNotFound, codeProductNotFound, domain.ErrProductNotFound.Error())
			case errors.Is(err, domain.ErrInvalidQuantity):
				writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, createHoldResponse{
			HoldID:    hold.ID,
			ExpiresAt: hold.ExpiresAt,
		})
	}
}

type createHoldRequest struct {
	ProductID      string `json:"product_id"`
	Qty            int    `json:"qty"`
	IdempotencyKey string `json:"idempotency_key"`
}

type createHoldResponse struct {
	HoldID    string    `json:"hold_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
