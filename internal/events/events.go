// Package events publishes integration events (order placed, user
// registered, catalog changed) to a topic exchange. The application works
// without a broker; wiring is optional.
package events

import "context"

// Routing keys.
const (
	OrderPlaced    = "order.placed"
	UserRegistered = "user.registered"
	BookUpdated    = "catalog.book.updated"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close()
}

// Nop discards everything; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close()                                     {}

type OrderPlacedPayload struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      int64  `json:"user_id"`
	TotalCents  int64  `json:"total_cents"`
}

type UserRegisteredPayload struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type BookUpdatedPayload struct {
	BookID int64 `json:"book_id"`
}
