// Package checkout drives one checkout attempt from cart selection to a
// persisted order, holding the in-memory stock reservation in between.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beyourshelf/bookstore/internal/cart"
	"github.com/beyourshelf/bookstore/internal/entity"
	"github.com/beyourshelf/bookstore/internal/payment"
)

// State of a checkout attempt. Transitions:
//
//	Idle -> Reserved            Begin, with at least one selected line
//	Reserved -> Finalized       Finalize, after payment and order save succeed
//	Reserved -> Reverted        Cancel, or any payment/save failure
type State int

const (
	StateIdle State = iota
	StateReserved
	StateFinalized
	StateReverted
)

func (s State) String() string {
	switch s {
	case StateReserved:
		return "reserved"
	case StateFinalized:
		return "finalized"
	case StateReverted:
		return "reverted"
	default:
		return "idle"
	}
}

var (
	ErrNoSelection = errors.New("checkout: no items selected")
	ErrNotReserved = errors.New("checkout: no active reservation")
)

// Inventory commits a reservation to persistent stock.
type Inventory interface {
	FinalizeStockAdjustments(ctx context.Context, reserved map[int64]int32) error
}

// OrderPlacer persists the order snapshot, assigning its id back.
type OrderPlacer interface {
	Place(ctx context.Context, o *entity.Order) error
}

// CartRemover drops purchased books from the cart, memory and store.
type CartRemover interface {
	RemoveAll(ctx context.Context, c *cart.Cart, bookIDs []int64) error
}

// Session is a single checkout attempt for one cart. Not reusable: once
// finalized or reverted, start a new session for the next attempt. The
// mutex serializes overlapping requests on the same session, so a
// double-submitted payment charges once and the loser sees ErrNotReserved.
type Session struct {
	cart      *cart.Cart
	carts     CartRemover
	inventory Inventory
	orders    OrderPlacer
	provider  payment.Provider
	now       func() time.Time

	mu        sync.Mutex
	state     State
	completed bool
	lines     []cart.Line
	reserved  map[int64]int32
}

func NewSession(c *cart.Cart, carts CartRemover, inv Inventory, orders OrderPlacer, provider payment.Provider) *Session {
	return &Session{
		cart:      c,
		carts:     carts,
		inventory: inv,
		orders:    orders,
		provider:  provider,
		now:       time.Now,
		state:     StateIdle,
		reserved:  make(map[int64]int32),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reserved returns a copy of the reservation map.
func (s *Session) Reserved() map[int64]int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]int32, len(s.reserved))
	for id, qty := range s.reserved {
		out[id] = qty
	}
	return out
}

// Total is the amount due for the reserved lines.
func (s *Session) Total() entity.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total()
}

func (s *Session) total() entity.Money { return cart.SelectedTotal(s.lines) }

// Begin reserves stock in memory for the selected lines and returns the
// amount due. With nothing selected it fails without any transition, and
// the reservation map stays empty. Persistent stock is not touched.
func (s *Session) Begin(lines []cart.Line) (entity.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := cart.Selected(lines)
	if len(selected) == 0 {
		return entity.Money{}, ErrNoSelection
	}
	s.lines = selected
	for _, l := range selected {
		s.reserved[l.Book.ID] = l.Qty
	}
	s.state = StateReserved
	total := s.total()
	log.Info().
		Int("lines", len(selected)).
		Str("total", total.String()).
		Msg("stock reserved for checkout")
	return total, nil
}

// Finalize validates the card details, charges them, persists the order,
// and only then applies the reservation to persistent inventory and drops
// the purchased books from the cart.
//
// A malformed card fails without a transition so the user can correct it.
// A declined charge or a failed order save reverts the reservation;
// persistent stock is untouched on every failure path because it is only
// written after the order is safely committed.
func (s *Session) Finalize(ctx context.Context, details payment.Details) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReserved {
		return nil, ErrNotReserved
	}

	if err := payment.FirstError(details.Validate(s.now())); err != nil {
		return nil, err
	}

	ref, err := s.provider.Charge(ctx, details, s.total().Cents)
	if err != nil {
		s.revert()
		return nil, fmt.Errorf("process payment: %w", err)
	}

	o := s.buildOrder(ref)
	if err := s.orders.Place(ctx, o); err != nil {
		s.revert()
		return nil, err
	}

	// Payment captured, order committed: the attempt is complete even if
	// the bookkeeping below reports an error.
	s.completed = true
	s.state = StateFinalized

	if err := s.inventory.FinalizeStockAdjustments(ctx, s.reserved); err != nil {
		s.reserved = make(map[int64]int32)
		return o, fmt.Errorf("order %s saved but stock adjustment failed: %w", o.OrderNumber, err)
	}

	bookIDs := make([]int64, 0, len(s.lines))
	for _, l := range s.lines {
		bookIDs = append(bookIDs, l.Book.ID)
	}
	s.reserved = make(map[int64]int32)
	if err := s.carts.RemoveAll(ctx, s.cart, bookIDs); err != nil {
		return o, fmt.Errorf("order %s saved but cart cleanup failed: %w", o.OrderNumber, err)
	}
	return o, nil
}

// Cancel runs the revert path when the payment screen is closed without
// completing. After a successful Finalize it is a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed || s.state != StateReserved {
		return
	}
	s.revert()
	log.Info().Msg("checkout cancelled, reservation released")
}

func (s *Session) revert() {
	s.reserved = make(map[int64]int32)
	s.state = StateReverted
}

func (s *Session) buildOrder(ref string) *entity.Order {
	o := &entity.Order{
		OrderNumber: ref,
		UserID:      s.cart.UserID(),
		PlacedAt:    s.now().UTC(),
	}
	for _, l := range s.lines {
		line := l.Total()
		o.Items = append(o.Items, entity.OrderItem{
			BookID:    l.Book.ID,
			Title:     l.Book.Title,
			Qty:       l.Qty,
			UnitCents: l.Book.PriceCents,
			LineCents: line.Cents,
		})
		o.TotalCents += line.Cents
	}
	return o
}
