// Package cart holds the in-memory shopping cart model: a per-user map of
// book to quantity, mirrored to the cart tables by the service layer.
package cart

import (
	"errors"
	"sort"
	"sync"

	"github.com/beyourshelf/bookstore/internal/entity"
)

var (
	ErrNilBook     = errors.New("cart: book must have an id")
	ErrBadQuantity = errors.New("cart: quantity must be positive")
)

// Cart is the mutable shopping cart of a single user. Every mutation is
// guarded by the cart's own mutex, and the OnChange callback (when set)
// fires after each successful mutation so a view layer can re-render
// without polling.
type Cart struct {
	mu       sync.Mutex
	userID   int64
	cartID   int64
	books    map[int64]line
	onChange func()
}

type line struct {
	book entity.Book
	qty  int32
}

func New(userID, cartID int64) *Cart {
	return &Cart{
		userID: userID,
		cartID: cartID,
		books:  make(map[int64]line),
	}
}

func (c *Cart) UserID() int64 { return c.userID }
func (c *Cart) CartID() int64 { return c.cartID }

// SetOnChange registers the notify-on-change callback. The callback runs
// outside the cart lock.
func (c *Cart) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Cart) notify(fn func()) {
	if fn != nil {
		fn()
	}
}

// AddBook merges qty into the existing quantity for the book, creating the
// entry when absent.
func (c *Cart) AddBook(book entity.Book, qty int32) error {
	if book.ID == 0 {
		return ErrNilBook
	}
	if qty <= 0 {
		return ErrBadQuantity
	}
	c.mu.Lock()
	l := c.books[book.ID]
	l.book = book
	l.qty += qty
	c.books[book.ID] = l
	fn := c.onChange
	c.mu.Unlock()
	c.notify(fn)
	return nil
}

// SetQuantity overwrites the quantity for the book. A quantity of zero or
// less removes the entry.
func (c *Cart) SetQuantity(book entity.Book, qty int32) error {
	if book.ID == 0 {
		return ErrNilBook
	}
	c.mu.Lock()
	if qty <= 0 {
		delete(c.books, book.ID)
	} else {
		c.books[book.ID] = line{book: book, qty: qty}
	}
	fn := c.onChange
	c.mu.Unlock()
	c.notify(fn)
	return nil
}

func (c *Cart) RemoveBook(bookID int64) {
	c.mu.Lock()
	delete(c.books, bookID)
	fn := c.onChange
	c.mu.Unlock()
	c.notify(fn)
}

func (c *Cart) RemoveBooks(bookIDs []int64) {
	c.mu.Lock()
	for _, id := range bookIDs {
		delete(c.books, id)
	}
	fn := c.onChange
	c.mu.Unlock()
	c.notify(fn)
}

// Quantity reports the quantity for a book, zero when absent.
func (c *Cart) Quantity(bookID int64) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.books[bookID].qty
}

// Books returns a snapshot of the cart ordered by book id. Mutating the
// returned slice does not affect the cart.
func (c *Cart) Books() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, 0, len(c.books))
	for _, l := range c.books {
		out = append(out, Line{Book: l.book, Qty: l.qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Book.ID < out[j].Book.ID })
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.books)
}

func (c *Cart) IsEmpty() bool { return c.Len() == 0 }

func (c *Cart) Clear() {
	c.mu.Lock()
	c.books = make(map[int64]line)
	fn := c.onChange
	c.mu.Unlock()
	c.notify(fn)
}
