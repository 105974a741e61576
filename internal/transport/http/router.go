package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterConfig carries the service dependencies of the HTTP surface.
type RouterConfig struct {
	Products ProductGetter
	Holds    HoldCreator
	Orders   OrderCreator
	Webhooks WebhookProcessor
	Admin    ProductAdmin

	Logger      *slog.Logger
	CORSOrigins []string
}

// NewRouter assembles the API routes with request logging and CORS applied.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", HealthHandler)
	r.Get("/products/{id}", HandleGetProduct(cfg.Products))
	r.Post("/holds", HandleCreateHold(cfg.Holds))
	r.Post("/orders", HandleCreateOrder(cfg.Orders))
	r.Post("/payments/webhook", HandlePaymentWebhook(cfg.Webhooks))
	r.Post("/admin/products", HandleCreateProduct(cfg.Admin))
	r.Get("/admin/products", HandleListProducts(cfg.Admin))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})

	return RequestLogger(CORS(cfg.CORSOrigins, r), cfg.Logger)
}
