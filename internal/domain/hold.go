package domain

import "time"

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusUsed      HoldStatus = "used"
	HoldStatusExpired   HoldStatus = "expired"
	HoldStatusCancelled HoldStatus = "cancelled"
)

// Hold is a time-boxed reservation of product stock, not yet converted to an
// order. An active hold always has its quantity counted in Product.Reserved.
type Hold struct {
	ID             string
	ProductID      string
	Qty            int
	Status         HoldStatus
	ExpiresAt      time.Time
	UsedAt         *time.Time
	IdempotencyKey string
	CreatedAt      time.Time
}

// ActiveAt reports whether the hold can still be converted at the given time.
func (h Hold) ActiveAt(now time.Time) bool {
	return h.Status == HoldStatusActive && h.ExpiresAt.After(now)
}
