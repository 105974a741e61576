package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// Order is the one-per-hold purchase record. TotalPrice is snapshotted from
// the product price at creation time.
type Order struct {
	ID               string
	HoldID           string
	ProductID        string
	Qty              int
	TotalPrice       decimal.Decimal
	Status           OrderStatus
	PaymentReference string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Final reports whether the order has reached a terminal payment status.
func (o Order) Final() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusCancelled
}
