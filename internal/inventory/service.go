// Package inventory applies finalized stock movements to the books table.
package inventory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// BookStock is the slice of the book repository the service mutates.
type BookStock interface {
	Stock(ctx context.Context, id int64) (int32, error)
	ReduceStock(ctx context.Context, id int64, qty int32) error
	AddSold(ctx context.Context, id int64, qty int32) error
}

type Service struct {
	books BookStock
}

func NewService(books BookStock) *Service { return &Service{books: books} }

// Available reports how many copies of a book can still be sold.
func (s *Service) Available(ctx context.Context, bookID int64) (int32, error) {
	return s.books.Stock(ctx, bookID)
}

// FinalizeStockAdjustments commits a checkout reservation to persistent
// inventory: for every book the physical copies go down and the sold
// counter goes up by the reserved quantity. Called exactly once per
// finalized checkout.
func (s *Service) FinalizeStockAdjustments(ctx context.Context, reserved map[int64]int32) error {
	for bookID, qty := range reserved {
		if qty <= 0 {
			continue
		}
		if err := s.books.ReduceStock(ctx, bookID, qty); err != nil {
			return fmt.Errorf("reduce stock for book %d: %w", bookID, err)
		}
		if err := s.books.AddSold(ctx, bookID, qty); err != nil {
			return fmt.Errorf("bump sold copies for book %d: %w", bookID, err)
		}
		log.Debug().Int64("book_id", bookID).Int32("qty", qty).Msg("stock finalized")
	}
	return nil
}
