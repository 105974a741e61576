package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the stock ledger row for a sellable item. stock is the capacity
// fixed at creation; reserved and sold are the running counters mutated under
// a row lock.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Stock     int
	Reserved  int
	Sold      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Available returns the quantity offerable to new holds, floored at zero.
func (p Product) Available() int {
	available := p.Stock - p.Reserved - p.Sold
	if available < 0 {
		return 0
	}
	return available
}
