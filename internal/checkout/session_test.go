package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beyourshelf/bookstore/internal/cart"
	"github.com/beyourshelf/bookstore/internal/entity"
	"github.com/beyourshelf/bookstore/internal/payment"
)

type fakeInventory struct {
	calls   int
	applied map[int64]int32
	err     error
}

func (f *fakeInventory) FinalizeStockAdjustments(_ context.Context, reserved map[int64]int32) error {
	f.calls++
	f.applied = make(map[int64]int32, len(reserved))
	for id, qty := range reserved {
		f.applied[id] = qty
	}
	return f.err
}

type fakeOrderPlacer struct {
	placed *entity.Order
	err    error
}

func (f *fakeOrderPlacer) Place(_ context.Context, o *entity.Order) error {
	if f.err != nil {
		return f.err
	}
	o.ID = 1
	f.placed = o
	return nil
}

type fakeCartRemover struct {
	removed []int64
	err     error
}

func (f *fakeCartRemover) RemoveAll(_ context.Context, c *cart.Cart, bookIDs []int64) error {
	if f.err != nil {
		return f.err
	}
	c.RemoveBooks(bookIDs)
	f.removed = append(f.removed, bookIDs...)
	return nil
}

type fakeProvider struct {
	err error
}

func (f *fakeProvider) Charge(_ context.Context, _ payment.Details, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "PAY-test-ref", nil
}

var (
	mockingbird = entity.Book{ID: 1, Title: "To Kill a Mockingbird", PriceCents: 2000, PhysicalCopies: 10}
	nineteen84  = entity.Book{ID: 2, Title: "1984", PriceCents: 1500, PhysicalCopies: 5}

	goodCard = payment.Details{
		CardNumber: "4242424242424242",
		HolderName: "Jane Reader",
		Expiry:     "12/99",
		CVV:        "123",
	}
)

type fixture struct {
	cart      *cart.Cart
	inventory *fakeInventory
	orders    *fakeOrderPlacer
	carts     *fakeCartRemover
	provider  *fakeProvider
	session   *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := cart.New(7, 42)
	require.NoError(t, c.AddBook(mockingbird, 2))
	require.NoError(t, c.AddBook(nineteen84, 1))

	f := &fixture{
		cart:      c,
		inventory: &fakeInventory{},
		orders:    &fakeOrderPlacer{},
		carts:     &fakeCartRemover{},
		provider:  &fakeProvider{},
	}
	f.session = NewSession(c, f.carts, f.inventory, f.orders, f.provider)
	return f
}

// selectAll marks every cart line for purchase.
func selectAll(c *cart.Cart) []cart.Line {
	lines := c.Books()
	for i := range lines {
		lines[i].Selected = true
	}
	return lines
}

func TestBeginWithoutSelectionFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.session.Begin(f.cart.Books()) // nothing ticked
	require.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, StateIdle, f.session.State())
	assert.Empty(t, f.session.Reserved())
}

func TestBeginReservesSelectedLines(t *testing.T) {
	f := newFixture(t)
	lines := f.cart.Books()
	lines[0].Selected = true // only the $20.00 book, qty 2

	total, err := f.session.Begin(lines)
	require.NoError(t, err)
	assert.Equal(t, "$40.00", total.String())
	assert.Equal(t, StateReserved, f.session.State())
	assert.Equal(t, map[int64]int32{mockingbird.ID: 2}, f.session.Reserved())
	assert.Equal(t, 0, f.inventory.calls, "reservation is in-memory only")
}

func TestFinalizeHappyPath(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.Begin(selectAll(f.cart))
	require.NoError(t, err)

	o, err := f.session.Finalize(context.Background(), goodCard)
	require.NoError(t, err)
	require.NotNil(t, o)

	assert.Equal(t, StateFinalized, f.session.State())
	assert.Equal(t, "PAY-test-ref", o.OrderNumber)
	assert.Equal(t, int64(7), o.UserID)
	assert.Equal(t, int64(5500), o.TotalCents)
	require.Len(t, o.Items, 2)

	// Stock applied exactly once with the reserved quantities.
	assert.Equal(t, 1, f.inventory.calls)
	assert.Equal(t, map[int64]int32{mockingbird.ID: 2, nineteen84.ID: 1}, f.inventory.applied)

	// Purchased books left the cart, reservation is gone.
	assert.True(t, f.cart.IsEmpty())
	assert.ElementsMatch(t, []int64{1, 2}, f.carts.removed)
	assert.Empty(t, f.session.Reserved())
}

func TestFinalizeWithInvalidCardKeepsReservation(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.Begin(selectAll(f.cart))
	require.NoError(t, err)

	bad := goodCard
	bad.Expiry = "13/30"
	_, err = f.session.Finalize(context.Background(), bad)
	require.ErrorIs(t, err, payment.ErrExpiryFormat)

	// No transition: the user corrects the form and retries.
	assert.Equal(t, StateReserved, f.session.State())
	assert.Len(t, f.session.Reserved(), 2)
	assert.Equal(t, 0, f.inventory.calls)
	assert.Nil(t, f.orders.placed)
}

func TestFinalizeDeclinedChargeReverts(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.Begin(selectAll(f.cart))
	require.NoError(t, err)

	f.provider.err = payment.ErrDeclined
	_, err = f.session.Finalize(context.Background(), goodCard)
	require.ErrorIs(t, err, payment.ErrDeclined)

	assert.Equal(t, StateReverted, f.session.State())
	assert.Empty(t, f.session.Reserved())
	assert.Equal(t, 0, f.inventory.calls, "persistent stock must stay untouched")
	assert.Nil(t, f.orders.placed)
	assert.Equal(t, 2, f.cart.Len(), "cart keeps its books after a decline")
}

func TestFinalizeOrderSaveFailureReverts(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.Begin(selectAll(f.cart))
	require.NoError(t, err)

	f.orders.err = errors.New("database is locked")
	_, err = f.session.Finalize(context.Background(), goodCard)
	require.Error(t, err)

	assert.Equal(t, StateReverted, f.session.State())
	assert.Empty(t, f.session.Reserved())
	assert.Equal(t, 0, f.inventory.calls)
	assert.Equal(t, 2, f.cart.Len())
}

func TestFinalizeStockAdjustmentFailureStillReturnsOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.Begin(selectAll(f.cart))
	require.NoError(t, err)

	f.inventory.err = errors.New("database is locked")
	o, err := f.session.Finalize(context.Background(), goodCard)

	// The order is committed and payment captured: the caller gets both
	// the order and the bookkeeping error.
	require.Error(t, err)
	require.NotNil(t, o)
	assert.Equal(t, StateFinalized, f.session.State())
	assert.Empty(t, f.session.Reserved())
}

func TestFinalizeWithoutReservationFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.session.Finalize(context.Background(), goodCard)
	require.ErrorIs(t, err, ErrNotReserved)
}

func TestCancelRevertsReservation(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.Begin(selectAll(f.cart))
	require.NoError(t, err)

	f.session.Cancel()

	assert.Equal(t, StateReverted, f.session.State())
	assert.Empty(t, f.session.Reserved())
	assert.Equal(t, 0, f.inventory.calls)
	assert.Equal(t, 2, f.cart.Len())
}

func TestCancelAfterFinalizeIsNoOp(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.Begin(selectAll(f.cart))
	require.NoError(t, err)
	_, err = f.session.Finalize(context.Background(), goodCard)
	require.NoError(t, err)

	f.session.Cancel()

	assert.Equal(t, StateFinalized, f.session.State())
	assert.Equal(t, 1, f.inventory.calls)
}

func TestDoubleSubmittedFinalizeChargesOnce(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.Begin(selectAll(f.cart))
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.session.Finalize(context.Background(), goodCard)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		if err == nil {
			succeeded++
		} else if errors.Is(err, ErrNotReserved) {
			rejected++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one submit completes")
	assert.Equal(t, 1, rejected, "the other submit sees no active reservation")
	assert.Equal(t, 1, f.inventory.calls)
	require.NotNil(t, f.orders.placed)
}

func TestSessionIsNotReusableAfterRevert(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.Begin(selectAll(f.cart))
	require.NoError(t, err)
	f.session.Cancel()

	_, err = f.session.Finalize(context.Background(), goodCard)
	require.ErrorIs(t, err, ErrNotReserved)
}
