package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beyourshelf/bookstore/internal/entity"
	"github.com/beyourshelf/bookstore/internal/events"
)

type fakeRepo struct {
	books       []entity.Book
	searchCalls int
}

func (f *fakeRepo) List(_ context.Context) ([]entity.Book, error) { return f.books, nil }

func (f *fakeRepo) Search(_ context.Context, keyword string) ([]entity.Book, error) {
	f.searchCalls++
	var out []entity.Book
	for _, b := range f.books {
		if b.Title == keyword {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) TopSellers(_ context.Context, limit int) ([]entity.Book, error) {
	if limit > len(f.books) {
		limit = len(f.books)
	}
	return f.books[:limit], nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*entity.Book, error) {
	for _, b := range f.books {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) Add(_ context.Context, b *entity.Book) error {
	b.ID = int64(len(f.books) + 1)
	f.books = append(f.books, *b)
	return nil
}

func (f *fakeRepo) Update(_ context.Context, b *entity.Book) error { return nil }
func (f *fakeRepo) Delete(_ context.Context, id int64) error       { return nil }

type recordingPublisher struct {
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) Close() {}

func TestSearchHitsCacheOnRepeatedKeyword(t *testing.T) {
	repo := &fakeRepo{books: []entity.Book{{ID: 1, Title: "1984"}}}
	svc := NewService(repo, nil)

	got, err := svc.Search(context.Background(), "1984")
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = svc.Search(context.Background(), "1984")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.searchCalls, "second search must come from the cache")

	// Keys normalise, so casing and padding share an entry.
	_, err = svc.Search(context.Background(), "  1984 ")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.searchCalls)
}

func TestCatalogWritesPurgeCacheAndPublish(t *testing.T) {
	repo := &fakeRepo{books: []entity.Book{{ID: 1, Title: "1984"}}}
	pub := &recordingPublisher{}
	svc := NewService(repo, pub)

	_, err := svc.Search(context.Background(), "1984")
	require.NoError(t, err)

	b := &entity.Book{Title: "The Hobbit", Author: "J. R. R. Tolkien", PriceCents: 3000}
	require.NoError(t, svc.Add(context.Background(), b))
	assert.Equal(t, []string{events.BookUpdated}, pub.keys)

	_, err = svc.Search(context.Background(), "1984")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.searchCalls, "write must purge cached searches")

	require.NoError(t, svc.Update(context.Background(), b))
	require.NoError(t, svc.Delete(context.Background(), b.ID))
	assert.Len(t, pub.keys, 3)
}

func TestTopSellersLimit(t *testing.T) {
	repo := &fakeRepo{books: make([]entity.Book, 8)}
	svc := NewService(repo, nil)

	top, err := svc.TopSellers(context.Background())
	require.NoError(t, err)
	assert.Len(t, top, 5)
}
