package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/quickmart/reserve/internal/app"
	"github.com/quickmart/reserve/internal/domain"
)

type fakeHoldCreator struct {
	hold domain.Hold
	err  error
	got  app.CreateHoldInput
}

func (f *fakeHoldCreator) CreateHold(_ context.Context, in app.CreateHoldInput) (domain.Hold, error) {
	f.got = in
	if f.err != nil {
		return domain.Hold{}, f.err
	}
	return f.hold, nil
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHandleCreateHold(t *testing.T) {
	expires := time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC)
	svc := &fakeHoldCreator{hold: domain.Hold{
		ID:        "h-1",
		ProductID: "p-1",
		Qty:       2,
		Status:    domain.HoldStatusActive,
		ExpiresAt: expires,
	}}

	rec := postJSON(t, HandleCreateHold(svc), `{"product_id":"p-1","qty":2,"idempotency_key":"req-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		HoldID    string    `json:"hold_id"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	decodeBody(t, rec, &resp)
	if resp.HoldID != "h-1" || !resp.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if svc.got.IdempotencyKey != "req-1" {
		t.Fatalf("idempotency key not forwarded: %+v", svc.got)
	}
}

func TestHandleCreateHold_InsufficientStock(t *testing.T) {
	svc := &fakeHoldCreator{err: &domain.InsufficientStockError{Available: 0, Requested: 5}}

	rec := postJSON(t, HandleCreateHold(svc), `{"product_id":"p-1","qty":5}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	decodeBody(t, rec, &resp)
	if resp.Error != "Insufficient stock. Available: 0, Requested: 5" {
		t.Fatalf("unexpected error message: %q", resp.Error)
	}
	if resp.Code != "insufficient_stock" {
		t.Fatalf("unexpected code: %q", resp.Code)
	}
}

func TestHandleCreateHold_ProductNotFound(t *testing.T) {
	svc := &fakeHoldCreator{err: domain.ErrProductNotFound}

	rec := postJSON(t, HandleCreateHold(svc), `{"product_id":"p-missing","qty":1}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleCreateHold_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"unknown field", `{"product_id":"p-1","qty":1,"bogus":true}`},
		{"missing product", `{"qty":1}`},
		{"zero qty", `{"product_id":"p-1","qty":0}`},
		{"negative qty", `{"product_id":"p-1","qty":-2}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeHoldCreator{}
			rec := postJSON(t, HandleCreateHold(svc), tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if svc.got.ProductID != "" {
				t.Fatal("service must not be called on invalid input")
			}
		})
	}
}
