package entity

import "time"

// Order is a snapshot of the purchased cart lines at checkout time.
// It is created once and never mutated after being persisted; the only
// field written back is ID, assigned from the database insert.
type Order struct {
	ID          int64
	OrderNumber string
	UserID      int64
	TotalCents  int64
	PlacedAt    time.Time
	Items       []OrderItem
}

type OrderItem struct {
	ID        int64
	OrderID   int64
	BookID    int64
	Title     string
	Qty       int32
	UnitCents int64
	LineCents int64
}

func (o Order) Total() Money { return Money{Cents: o.TotalCents} }

// CartItem is the persistence shape of one cart row: no Book reference,
// just the identity and quantity that round-trip through the cart tables.
type CartItem struct {
	BookID int64
	Qty    int32
}
