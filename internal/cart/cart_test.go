package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beyourshelf/bookstore/internal/entity"
)

var (
	mockingbird = entity.Book{ID: 1, Title: "To Kill a Mockingbird", Author: "Harper Lee", PriceCents: 2000, PhysicalCopies: 10}
	nineteen84  = entity.Book{ID: 2, Title: "1984", Author: "George Orwell", PriceCents: 1500, PhysicalCopies: 5}
)

func TestAddBookMergesQuantities(t *testing.T) {
	c := New(7, 1)

	require.NoError(t, c.AddBook(mockingbird, 2))
	require.NoError(t, c.AddBook(mockingbird, 3))

	assert.Equal(t, int32(5), c.Quantity(mockingbird.ID))
	assert.Equal(t, 1, c.Len())
}

func TestAddBookRejectsBadInput(t *testing.T) {
	c := New(7, 1)

	assert.ErrorIs(t, c.AddBook(entity.Book{}, 1), ErrNilBook)
	assert.ErrorIs(t, c.AddBook(mockingbird, 0), ErrBadQuantity)
	assert.ErrorIs(t, c.AddBook(mockingbird, -2), ErrBadQuantity)
	assert.True(t, c.IsEmpty())
}

func TestSetQuantityOverwrites(t *testing.T) {
	c := New(7, 1)
	require.NoError(t, c.AddBook(mockingbird, 2))

	require.NoError(t, c.SetQuantity(mockingbird, 9))
	assert.Equal(t, int32(9), c.Quantity(mockingbird.ID))
}

func TestSetQuantityZeroRemovesEntry(t *testing.T) {
	c := New(7, 1)
	require.NoError(t, c.AddBook(mockingbird, 2))
	require.NoError(t, c.AddBook(nineteen84, 1))

	require.NoError(t, c.SetQuantity(mockingbird, 0))
	assert.Equal(t, int32(0), c.Quantity(mockingbird.ID))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.SetQuantity(nineteen84, -3))
	assert.True(t, c.IsEmpty())
}

func TestRemoveBooks(t *testing.T) {
	c := New(7, 1)
	require.NoError(t, c.AddBook(mockingbird, 2))
	require.NoError(t, c.AddBook(nineteen84, 1))

	c.RemoveBooks([]int64{mockingbird.ID, nineteen84.ID})
	assert.True(t, c.IsEmpty())
}

func TestBooksReturnsSortedSnapshot(t *testing.T) {
	c := New(7, 1)
	require.NoError(t, c.AddBook(nineteen84, 1))
	require.NoError(t, c.AddBook(mockingbird, 2))

	lines := c.Books()
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].Book.ID)
	assert.Equal(t, int64(2), lines[1].Book.ID)

	// Mutating the snapshot must not leak back into the cart.
	lines[0].Qty = 99
	assert.Equal(t, int32(2), c.Quantity(mockingbird.ID))
}

func TestOnChangeFiresAfterMutations(t *testing.T) {
	c := New(7, 1)
	var fired int
	c.SetOnChange(func() { fired++ })

	require.NoError(t, c.AddBook(mockingbird, 1))
	require.NoError(t, c.SetQuantity(mockingbird, 3))
	c.RemoveBook(mockingbird.ID)
	c.Clear()

	assert.Equal(t, 4, fired)
}

func TestSelectedTotalCountsOnlyTickedLines(t *testing.T) {
	// Book 1 at $20.00 x2 selected, book 2 at $15.00 x1 not selected.
	lines := []Line{
		{Book: mockingbird, Qty: 2, Selected: true},
		{Book: nineteen84, Qty: 1},
	}

	assert.Equal(t, "$40.00", SelectedTotal(lines).String())
	assert.Len(t, Selected(lines), 1)
}

func TestLineTotal(t *testing.T) {
	l := Line{Book: nineteen84, Qty: 3}
	assert.Equal(t, int64(4500), l.Total().Cents)
	assert.Equal(t, "$45.00", l.Total().String())
}
