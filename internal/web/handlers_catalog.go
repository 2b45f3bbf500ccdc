package web

import (
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/beyourshelf/bookstore/internal/entity"
)

type bookView struct {
	entity.Book
	PriceLabel string
	SoldLabel  string
	InStock    bool
}

type catalogPage struct {
	User       *entity.User
	Query      string
	Books      []bookView
	TopSellers []bookView
	Error      string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	books, err := s.catalog.Search(r.Context(), q)
	if err != nil {
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
		return
	}
	top, err := s.catalog.TopSellers(r.Context())
	if err != nil {
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
		return
	}
	s.render(w, "catalog.html", catalogPage{
		User:       s.currentUser(r),
		Query:      q,
		Books:      toBookViews(books),
		TopSellers: toBookViews(top),
		Error:      r.URL.Query().Get("err"),
	})
}

func toBookViews(books []entity.Book) []bookView {
	out := make([]bookView, 0, len(books))
	for _, b := range books {
		out = append(out, bookView{
			Book:       b,
			PriceLabel: b.Price().String(),
			SoldLabel:  humanize.Comma(int64(b.SoldCopies)),
			InStock:    b.PhysicalCopies > 0,
		})
	}
	return out
}
