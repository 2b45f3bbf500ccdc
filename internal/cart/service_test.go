package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beyourshelf/bookstore/internal/entity"
	"github.com/beyourshelf/bookstore/internal/store"
)

type fakeStore struct {
	cartID  int64
	items   []entity.CartItem
	upserts []entity.CartItem
	sets    []entity.CartItem
	removed []int64
	cleared bool
	err     error
}

func (f *fakeStore) GetOrCreate(_ context.Context, _ int64) (int64, error) {
	return f.cartID, f.err
}

func (f *fakeStore) Items(_ context.Context, _ int64) ([]entity.CartItem, error) {
	return f.items, f.err
}

func (f *fakeStore) UpsertItem(_ context.Context, _, bookID int64, qty int32) error {
	f.upserts = append(f.upserts, entity.CartItem{BookID: bookID, Qty: qty})
	return f.err
}

func (f *fakeStore) SetQuantity(_ context.Context, _, bookID int64, qty int32) error {
	f.sets = append(f.sets, entity.CartItem{BookID: bookID, Qty: qty})
	return f.err
}

func (f *fakeStore) RemoveItem(_ context.Context, _, bookID int64) error {
	f.removed = append(f.removed, bookID)
	return f.err
}

func (f *fakeStore) RemoveItems(_ context.Context, _ int64, bookIDs []int64) error {
	f.removed = append(f.removed, bookIDs...)
	return f.err
}

func (f *fakeStore) Clear(_ context.Context, _ int64) error {
	f.cleared = true
	return f.err
}

type fakeBooks struct {
	byID map[int64]entity.Book
}

func (f *fakeBooks) Get(_ context.Context, id int64) (*entity.Book, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBooks) Stock(_ context.Context, id int64) (int32, error) {
	b, ok := f.byID[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	return b.PhysicalCopies, nil
}

func TestServiceLoadResolvesBooks(t *testing.T) {
	st := &fakeStore{
		cartID: 42,
		items: []entity.CartItem{
			{BookID: mockingbird.ID, Qty: 2},
			{BookID: 999, Qty: 1}, // deleted book, row must be skipped
		},
	}
	books := &fakeBooks{byID: map[int64]entity.Book{mockingbird.ID: mockingbird}}
	svc := NewService(st, books)

	c, err := svc.Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.CartID())
	assert.Equal(t, int64(7), c.UserID())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int32(2), c.Quantity(mockingbird.ID))
}

func TestServiceAddPersistsAndChecksStock(t *testing.T) {
	st := &fakeStore{cartID: 42}
	books := &fakeBooks{byID: map[int64]entity.Book{nineteen84.ID: nineteen84}}
	svc := NewService(st, books)
	c := New(7, 42)

	require.NoError(t, svc.Add(context.Background(), c, nineteen84, 3))
	require.Len(t, st.upserts, 1)
	assert.Equal(t, int32(3), st.upserts[0].Qty)

	// 3 already in the cart plus 3 more exceeds the 5 in stock.
	err := svc.Add(context.Background(), c, nineteen84, 3)
	var insufficient ErrInsufficientStock
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int32(6), insufficient.Want)
	assert.Equal(t, int32(5), insufficient.Have)
	assert.Equal(t, int32(3), c.Quantity(nineteen84.ID), "failed add must not touch the cart")
	assert.Len(t, st.upserts, 1)
}

func TestServiceSetQuantityAndRemove(t *testing.T) {
	st := &fakeStore{cartID: 42}
	books := &fakeBooks{byID: map[int64]entity.Book{mockingbird.ID: mockingbird}}
	svc := NewService(st, books)
	c := New(7, 42)
	require.NoError(t, svc.Add(context.Background(), c, mockingbird, 1))

	require.NoError(t, svc.SetQuantity(context.Background(), c, mockingbird, 4))
	assert.Equal(t, int32(4), c.Quantity(mockingbird.ID))
	require.Len(t, st.sets, 1)

	require.NoError(t, svc.Remove(context.Background(), c, mockingbird.ID))
	assert.True(t, c.IsEmpty())
	assert.Equal(t, []int64{mockingbird.ID}, st.removed)
}

func TestServiceKeepsMemoryWhenStoreFails(t *testing.T) {
	books := &fakeBooks{byID: map[int64]entity.Book{mockingbird.ID: mockingbird}}
	st := &fakeStore{cartID: 42}
	svc := NewService(st, books)
	c := New(7, 42)
	require.NoError(t, svc.Add(context.Background(), c, mockingbird, 2))

	st.err = errors.New("database is locked")

	require.Error(t, svc.Add(context.Background(), c, mockingbird, 1))
	assert.Equal(t, int32(2), c.Quantity(mockingbird.ID))

	require.Error(t, svc.SetQuantity(context.Background(), c, mockingbird, 9))
	assert.Equal(t, int32(2), c.Quantity(mockingbird.ID))

	require.Error(t, svc.Remove(context.Background(), c, mockingbird.ID))
	assert.Equal(t, 1, c.Len())

	require.Error(t, svc.Clear(context.Background(), c))
	assert.Equal(t, 1, c.Len())
}

func TestServiceClearEmptiesMemoryAndStore(t *testing.T) {
	st := &fakeStore{cartID: 42}
	books := &fakeBooks{byID: map[int64]entity.Book{mockingbird.ID: mockingbird}}
	svc := NewService(st, books)
	c := New(7, 42)
	require.NoError(t, svc.Add(context.Background(), c, mockingbird, 2))

	require.NoError(t, svc.Clear(context.Background(), c))
	assert.True(t, c.IsEmpty())
	assert.True(t, st.cleared)
}
