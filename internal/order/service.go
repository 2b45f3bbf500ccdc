// Package order persists checkout snapshots and serves order history.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/beyourshelf/bookstore/internal/entity"
	"github.com/beyourshelf/bookstore/internal/events"
)

type Repository interface {
	Save(ctx context.Context, o *entity.Order) error
	ByUser(ctx context.Context, userID int64) ([]entity.Order, error)
	ByID(ctx context.Context, orderID int64) (*entity.Order, error)
	All(ctx context.Context) ([]entity.Order, error)
	Delete(ctx context.Context, orderID int64) error
}

type Service struct {
	repo Repository
	pub  events.Publisher
}

func NewService(repo Repository, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{repo: repo, pub: pub}
}

// Place persists the order and its items in one transaction, assigning
// the generated id back onto o. An order number is generated when the
// caller did not set one.
func (s *Service) Place(ctx context.Context, o *entity.Order) error {
	if o.OrderNumber == "" {
		o.OrderNumber = uuid.NewString()
	}
	if o.PlacedAt.IsZero() {
		o.PlacedAt = time.Now().UTC()
	}
	if err := s.repo.Save(ctx, o); err != nil {
		return fmt.Errorf("save order %s: %w", o.OrderNumber, err)
	}

	_ = s.pub.Publish(ctx, events.OrderPlaced, events.OrderPlacedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		TotalCents:  o.TotalCents,
	})
	log.Info().
		Int64("order_id", o.ID).
		Str("order_number", o.OrderNumber).
		Int64("total_cents", o.TotalCents).
		Msg("order placed")
	return nil
}

func (s *Service) History(ctx context.Context, userID int64) ([]entity.Order, error) {
	return s.repo.ByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, orderID int64) (*entity.Order, error) {
	return s.repo.ByID(ctx, orderID)
}

func (s *Service) All(ctx context.Context) ([]entity.Order, error) {
	return s.repo.All(ctx)
}

func (s *Service) Delete(ctx context.Context, orderID int64) error {
	return s.repo.Delete(ctx, orderID)
}
