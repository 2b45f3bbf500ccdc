package cart

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/beyourshelf/bookstore/internal/entity"
)

// Store is the slice of the persistence layer the cart service needs.
type Store interface {
	GetOrCreate(ctx context.Context, userID int64) (int64, error)
	Items(ctx context.Context, cartID int64) ([]entity.CartItem, error)
	UpsertItem(ctx context.Context, cartID, bookID int64, qty int32) error
	SetQuantity(ctx context.Context, cartID, bookID int64, qty int32) error
	RemoveItem(ctx context.Context, cartID, bookID int64) error
	RemoveItems(ctx context.Context, cartID int64, bookIDs []int64) error
	Clear(ctx context.Context, cartID int64) error
}

// BookReader resolves persisted cart rows back into full books.
type BookReader interface {
	Get(ctx context.Context, id int64) (*entity.Book, error)
	Stock(ctx context.Context, id int64) (int32, error)
}

// Service keeps a user's in-memory Cart and the cart tables in step:
// every mutation goes to both, memory first.
type Service struct {
	store Store
	books BookReader
}

func NewService(store Store, books BookReader) *Service {
	return &Service{store: store, books: books}
}

// Load builds the in-memory cart for a user from the active cart row,
// creating the row when the user has none. Rows whose book no longer
// exists are skipped.
func (s *Service) Load(ctx context.Context, userID int64) (*Cart, error) {
	cartID, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart for user %d: %w", userID, err)
	}
	items, err := s.store.Items(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart %d items: %w", cartID, err)
	}

	c := New(userID, cartID)
	for _, it := range items {
		book, err := s.books.Get(ctx, it.BookID)
		if err != nil {
			log.Warn().Int64("book_id", it.BookID).Err(err).Msg("dropping stale cart row")
			continue
		}
		if err := c.AddBook(*book, it.Qty); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ErrInsufficientStock reports an add that would exceed available copies.
type ErrInsufficientStock struct {
	BookID int64
	Want   int32
	Have   int32
}

func (e ErrInsufficientStock) Error() string {
	return fmt.Sprintf("book %d: want %d copies, only %d in stock", e.BookID, e.Want, e.Have)
}

// Add puts qty copies of the book into the cart, in the database and in
// memory. The store is written first so a failed write leaves the
// in-memory cart agreeing with the rows; the requested total quantity may
// not exceed current stock.
func (s *Service) Add(ctx context.Context, c *Cart, book entity.Book, qty int32) error {
	if book.ID == 0 {
		return ErrNilBook
	}
	if qty <= 0 {
		return ErrBadQuantity
	}
	stock, err := s.books.Stock(ctx, book.ID)
	if err != nil {
		return err
	}
	if want := c.Quantity(book.ID) + qty; want > stock {
		return ErrInsufficientStock{BookID: book.ID, Want: want, Have: stock}
	}
	if err := s.store.UpsertItem(ctx, c.CartID(), book.ID, qty); err != nil {
		return err
	}
	return c.AddBook(book, qty)
}

// SetQuantity overwrites the cart quantity for a book; qty <= 0 removes it.
func (s *Service) SetQuantity(ctx context.Context, c *Cart, book entity.Book, qty int32) error {
	if book.ID == 0 {
		return ErrNilBook
	}
	if err := s.store.SetQuantity(ctx, c.CartID(), book.ID, qty); err != nil {
		return err
	}
	return c.SetQuantity(book, qty)
}

func (s *Service) Remove(ctx context.Context, c *Cart, bookID int64) error {
	if err := s.store.RemoveItem(ctx, c.CartID(), bookID); err != nil {
		return err
	}
	c.RemoveBook(bookID)
	return nil
}

func (s *Service) RemoveAll(ctx context.Context, c *Cart, bookIDs []int64) error {
	if err := s.store.RemoveItems(ctx, c.CartID(), bookIDs); err != nil {
		return err
	}
	c.RemoveBooks(bookIDs)
	return nil
}

// Clear empties the cart entirely.
func (s *Service) Clear(ctx context.Context, c *Cart) error {
	if err := s.store.Clear(ctx, c.CartID()); err != nil {
		return err
	}
	c.Clear()
	return nil
}
