// Package catalog serves the browsable book list, with a small cache in
// front of title/author searches.
package catalog

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/beyourshelf/bookstore/internal/entity"
	"github.com/beyourshelf/bookstore/internal/events"
)

const searchCacheSize = 64

type Repository interface {
	List(ctx context.Context) ([]entity.Book, error)
	Search(ctx context.Context, keyword string) ([]entity.Book, error)
	TopSellers(ctx context.Context, limit int) ([]entity.Book, error)
	Get(ctx context.Context, id int64) (*entity.Book, error)
	Add(ctx context.Context, b *entity.Book) error
	Update(ctx context.Context, b *entity.Book) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo  Repository
	pub   events.Publisher
	cache *lru.Cache[string, []entity.Book]
}

func NewService(repo Repository, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	// Size is fixed, so the only error is a non-positive size.
	cache, _ := lru.New[string, []entity.Book](searchCacheSize)
	return &Service{repo: repo, pub: pub, cache: cache}
}

func (s *Service) List(ctx context.Context) ([]entity.Book, error) {
	return s.repo.List(ctx)
}

// Search consults the cache first; any catalog write purges it.
func (s *Service) Search(ctx context.Context, keyword string) ([]entity.Book, error) {
	key := strings.ToLower(strings.TrimSpace(keyword))
	if hit, ok := s.cache.Get(key); ok {
		return hit, nil
	}
	books, err := s.repo.Search(ctx, keyword)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, books)
	return books, nil
}

func (s *Service) TopSellers(ctx context.Context) ([]entity.Book, error) {
	return s.repo.TopSellers(ctx, 5)
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Book, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Add(ctx context.Context, b *entity.Book) error {
	if err := s.repo.Add(ctx, b); err != nil {
		return err
	}
	s.invalidate(ctx, b.ID)
	return nil
}

func (s *Service) Update(ctx context.Context, b *entity.Book) error {
	if err := s.repo.Update(ctx, b); err != nil {
		return err
	}
	s.invalidate(ctx, b.ID)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, bookID int64) {
	s.cache.Purge()
	_ = s.pub.Publish(ctx, events.BookUpdated, events.BookUpdatedPayload{BookID: bookID})
}
