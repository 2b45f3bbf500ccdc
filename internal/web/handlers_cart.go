package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/beyourshelf/bookstore/internal/cart"
	"github.com/beyourshelf/bookstore/internal/checkout"
	"github.com/beyourshelf/bookstore/internal/entity"
)

type cartLineView struct {
	cart.Line
	TotalLabel string
}

type cartPage struct {
	User       *entity.User
	Lines      []cartLineView
	TotalLabel string
	Error      string
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	c, err := s.userCart(r.Context(), u.ID)
	if err != nil {
		http.Error(w, "cart unavailable", http.StatusInternalServerError)
		return
	}

	lines := c.Books()
	views := make([]cartLineView, 0, len(lines))
	var total entity.Money
	for _, l := range lines {
		views = append(views, cartLineView{Line: l, TotalLabel: l.Total().String()})
		total = total.Add(l.Total())
	}
	s.render(w, "cart.html", cartPage{
		User:       u,
		Lines:      views,
		TotalLabel: total.String(),
		Error:      r.URL.Query().Get("err"),
	})
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	c, err := s.userCart(r.Context(), u.ID)
	if err != nil {
		http.Error(w, "cart unavailable", http.StatusInternalServerError)
		return
	}

	book, err := s.catalog.Get(r.Context(), formInt64(r, "book_id"))
	if err != nil {
		redirectErr(w, r, "/", "book not found")
		return
	}
	qty := formInt32(r, "qty")
	if qty == 0 {
		qty = 1
	}
	if err := s.carts.Add(r.Context(), c, *book, qty); err != nil {
		var stock cart.ErrInsufficientStock
		if errors.As(err, &stock) {
			redirectErr(w, r, "/", "not enough copies in stock")
			return
		}
		redirectErr(w, r, "/", "could not add to cart")
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// handleCartQuantity applies a +1/-1 adjustment; a quantity reaching zero
// removes the line.
func (s *Server) handleCartQuantity(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	c, err := s.userCart(r.Context(), u.ID)
	if err != nil {
		http.Error(w, "cart unavailable", http.StatusInternalServerError)
		return
	}

	bookID := formInt64(r, "book_id")
	delta := formInt32(r, "delta")
	book, err := s.catalog.Get(r.Context(), bookID)
	if err != nil {
		redirectErr(w, r, "/cart", "book not found")
		return
	}
	newQty := c.Quantity(bookID) + delta
	if err := s.carts.SetQuantity(r.Context(), c, *book, newQty); err != nil {
		redirectErr(w, r, "/cart", "could not update quantity")
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	c, err := s.userCart(r.Context(), u.ID)
	if err != nil {
		http.Error(w, "cart unavailable", http.StatusInternalServerError)
		return
	}
	if err := s.carts.Remove(r.Context(), c, formInt64(r, "book_id")); err != nil {
		redirectErr(w, r, "/cart", "could not remove item")
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	c, err := s.userCart(r.Context(), u.ID)
	if err != nil {
		http.Error(w, "cart unavailable", http.StatusInternalServerError)
		return
	}
	if err := s.carts.Clear(r.Context(), c); err != nil {
		redirectErr(w, r, "/cart", "could not clear cart")
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// handleCheckout reserves stock in memory for the ticked lines and opens
// the payment screen. An existing unfinished checkout is cancelled first,
// releasing its reservation.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	c, err := s.userCart(r.Context(), u.ID)
	if err != nil {
		http.Error(w, "cart unavailable", http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		redirectErr(w, r, "/cart", "bad request")
		return
	}

	if old := s.activeCheckout(u.ID); old != nil {
		old.Cancel()
		s.setCheckout(u.ID, nil)
	}

	selected := make(map[string]bool)
	for _, id := range r.PostForm["selected"] {
		selected[id] = true
	}
	lines := c.Books()
	for i := range lines {
		lines[i].Selected = selected[formatID(lines[i].Book.ID)]
	}

	sess := checkout.NewSession(c, s.carts, s.inventory, s.orders, s.provider)
	if _, err := sess.Begin(lines); err != nil {
		if errors.Is(err, checkout.ErrNoSelection) {
			redirectErr(w, r, "/cart", "no items selected for checkout")
			return
		}
		redirectErr(w, r, "/cart", "checkout failed")
		return
	}
	s.setCheckout(u.ID, sess)
	http.Redirect(w, r, "/payment", http.StatusSeeOther)
}

func redirectErr(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?err="+url.QueryEscape(msg), http.StatusSeeOther)
}
