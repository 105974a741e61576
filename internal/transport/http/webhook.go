package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quickmart/reserve/internal/app"
	"github.com/quickmart/reserve/internal/domain"
)

// WebhookProcessor is the minimal interface needed to finalize payments.
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, in app.WebhookInput) (app.WebhookResult, error)
}

// HandlePaymentWebhook returns an HTTP handler for payment provider
// confirmations. Processed deliveries answer 200, unprocessable ones 400;
// both carry the structured result body.
func HandlePaymentWebhook(svc WebhookProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentWebhookRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		result, err := svc.ProcessWebhook(r.Context(), app.WebhookInput{
			IdempotencyKey:   req.IdempotencyKey,
			OrderID:          req.OrderID,
			Status:           req.Status,
			PaymentReference: req.PaymentReference,
			Provider:         req.Provider,
		})
		if err != nil {
			if errors.Is(err, domain.ErrIdempotencyKeyRequired) {
				writeError(w, http.StatusBadRequest, codeIdempotencyRequired, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		status := http.StatusOK
		if !result.Processed {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, paymentWebhookResponse{
			Processed:   result.Processed,
			Status:      string(result.Status),
			OrderID:     result.OrderID,
			OrderStatus: string(result.OrderStatus),
			Message:     result.Message,
		})
	}
}

type paymentWebhookRequest struct {
	IdempotencyKey   string  `json:"idempotency_key"`
	OrderID          *string `json:"order_id"`
	Status           string  `json:"status"`
	PaymentReference string  `json:"payment_reference"`
	Provider         string  `json:"provider"`
}

type paymentWebhookResponse struct {
	Processed   bool   `json:"processed"`
	Status      string `json:"status"`
	OrderID     string `json:"order_id,omitempty"`
	OrderStatus string `json:"order_status,omitempty"`
	Message     string `json:"message,omitempty"`
}
