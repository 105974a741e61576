package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quickmart/reserve/internal/app"
	"github.com/quickmart/reserve/internal/domain"
)

type fakeProductAdmin struct {
	product  domain.Product
	products []domain.Product
	err      error
	got      app.CreateProductInput
}

func (f *fakeProductAdmin) CreateProduct(_ context.Context, in app.CreateProductInput) (domain.Product, error) {
	f.got = in
	if f.err != nil {
		return domain.Product{}, f.err
	}
	return f.product, nil
}

func (f *fakeProductAdmin) ListProducts(context.Context) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func TestHandleCreateProduct(t *testing.T) {
	svc := &fakeProductAdmin{product: domain.Product{
		ID:    "p-1",
		Name:  "Limited Sneaker",
		Price: decimal.NewFromFloat(129.99),
		Stock: 50,
	}}

	rec := postJSON(t, HandleCreateProduct(svc), `{"name":"Limited Sneaker","price":"129.99","stock":50}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		ID    string `json:"id"`
		Price string `json:"price"`
		Stock int    `json:"stock"`
	}
	decodeBody(t, rec, &resp)
	if resp.ID != "p-1" || resp.Price != "129.99" || resp.Stock != 50 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !svc.got.Price.Equal(decimal.NewFromFloat(129.99)) {
		t.Fatalf("price not forwarded: %+v", svc.got)
	}
}

func TestHandleCreateProduct_InvalidPrice(t *testing.T) {
	svc := &fakeProductAdmin{}
	rec := postJSON(t, HandleCreateProduct(svc), `{"name":"x","price":"not-a-number","stock":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.got.Name != "" {
		t.Fatal("service must not be called on unparseable price")
	}
}

func TestHandleCreateProduct_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"name required", app.ErrProductNameRequired},
		{"invalid price", app.ErrInvalidPrice},
		{"invalid stock", app.ErrInvalidStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeProductAdmin{err: tc.err}
			rec := postJSON(t, HandleCreateProduct(svc), `{"name":"x","price":"1.00","stock":1}`)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestHandleListProducts(t *testing.T) {
	svc := &fakeProductAdmin{products: []domain.Product{
		{ID: "p-1", Name: "A", Price: decimal.NewFromInt(10), Stock: 5, Reserved: 2, Sold: 1},
		{ID: "p-2", Name: "B", Price: decimal.NewFromInt(20), Stock: 3},
	}}

	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	rec := httptest.NewRecorder()
	HandleListProducts(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []struct {
		ID       string `json:"id"`
		Price    string `json:"price"`
		Reserved int    `json:"reserved"`
		Sold     int    `json:"sold"`
	}
	decodeBody(t, rec, &resp)
	if len(resp) != 2 {
		t.Fatalf("expected 2 products, got %d", len(resp))
	}
	if resp[0].Reserved != 2 || resp[0].Sold != 1 {
		t.Fatalf("unexpected counters: %+v", resp[0])
	}
	if resp[0].Price != "10.00" {
		t.Fatalf("expected price 10.00, got %q", resp[0].Price)
	}
}
