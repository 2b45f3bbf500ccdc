package web

import (
	"net/http"

	"github.com/beyourshelf/bookstore/internal/entity"
)

type adminBooksPage struct {
	User  *entity.User
	Books []bookView
	Error string
}

func (s *Server) handleAdminBooks(w http.ResponseWriter, r *http.Request) {
	u := s.requireAdmin(w, r)
	if u == nil {
		return
	}
	books, err := s.catalog.List(r.Context())
	if err != nil {
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
		return
	}
	s.render(w, "admin_books.html", adminBooksPage{
		User:  u,
		Books: toBookViews(books),
		Error: r.URL.Query().Get("err"),
	})
}

// handleAdminBookSave inserts when no id is posted, updates otherwise.
func (s *Server) handleAdminBookSave(w http.ResponseWriter, r *http.Request) {
	u := s.requireAdmin(w, r)
	if u == nil {
		return
	}
	b := entity.Book{
		ID:             formInt64(r, "id"),
		Title:          r.FormValue("title"),
		Author:         r.FormValue("author"),
		PhysicalCopies: formInt32(r, "physical_copies"),
		PriceCents:     formInt64(r, "price_cents"),
		SoldCopies:     formInt32(r, "sold_copies"),
	}
	if b.Title == "" || b.Author == "" {
		redirectErr(w, r, "/admin/books", "title and author are required")
		return
	}

	var err error
	if b.ID == 0 {
		err = s.catalog.Add(r.Context(), &b)
	} else {
		err = s.catalog.Update(r.Context(), &b)
	}
	if err != nil {
		redirectErr(w, r, "/admin/books", "could not save book")
		return
	}
	http.Redirect(w, r, "/admin/books", http.StatusSeeOther)
}

func (s *Server) handleAdminBookDelete(w http.ResponseWriter, r *http.Request) {
	u := s.requireAdmin(w, r)
	if u == nil {
		return
	}
	if err := s.catalog.Delete(r.Context(), formInt64(r, "id")); err != nil {
		redirectErr(w, r, "/admin/books", "could not delete book")
		return
	}
	http.Redirect(w, r, "/admin/books", http.StatusSeeOther)
}

type adminUsersPage struct {
	User  *entity.User
	Users []entity.User
	Error string
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	u := s.requireAdmin(w, r)
	if u == nil {
		return
	}
	users, err := s.users.List(r.Context())
	if err != nil {
		http.Error(w, "users unavailable", http.StatusInternalServerError)
		return
	}
	s.render(w, "admin_users.html", adminUsersPage{
		User:  u,
		Users: users,
		Error: r.URL.Query().Get("err"),
	})
}

func (s *Server) handleAdminUserSave(w http.ResponseWriter, r *http.Request) {
	u := s.requireAdmin(w, r)
	if u == nil {
		return
	}
	err := s.users.UpdateProfile(r.Context(),
		formInt64(r, "id"),
		r.FormValue("username"),
		r.FormValue("first_name"),
		r.FormValue("last_name"),
		r.FormValue("password"),
		r.FormValue("is_admin") == "1")
	if err != nil {
		redirectErr(w, r, "/admin/users", "could not update user")
		return
	}
	// Drop the edited user's cached identity so their next request
	// picks up the new profile.
	s.session.SignOut(formInt64(r, "id"))
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (s *Server) handleAdminUserDelete(w http.ResponseWriter, r *http.Request) {
	u := s.requireAdmin(w, r)
	if u == nil {
		return
	}
	id := formInt64(r, "id")
	if id == u.ID {
		redirectErr(w, r, "/admin/users", "cannot delete the signed-in admin")
		return
	}
	if err := s.users.Delete(r.Context(), id); err != nil {
		redirectErr(w, r, "/admin/users", "could not delete user")
		return
	}
	s.session.SignOut(id)
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

type adminOrdersPage struct {
	User   *entity.User
	Orders []orderView
	Error  string
}

func (s *Server) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	u := s.requireAdmin(w, r)
	if u == nil {
		return
	}
	orders, err := s.orders.All(r.Context())
	if err != nil {
		http.Error(w, "orders unavailable", http.StatusInternalServerError)
		return
	}
	s.render(w, "admin_orders.html", adminOrdersPage{
		User:   u,
		Orders: toOrderViews(orders),
		Error:  r.URL.Query().Get("err"),
	})
}

func (s *Server) handleAdminOrderDelete(w http.ResponseWriter, r *http.Request) {
	u := s.requireAdmin(w, r)
	if u == nil {
		return
	}
	if err := s.orders.Delete(r.Context(), formInt64(r, "id")); err != nil {
		redirectErr(w, r, "/admin/orders", "could not delete order")
		return
	}
	http.Redirect(w, r, "/admin/orders", http.StatusSeeOther)
}
