// Package web is the HTML surface of the store: catalog, cart, checkout,
// and the admin panel, rendered server-side.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/beyourshelf/bookstore/internal/cart"
	"github.com/beyourshelf/bookstore/internal/catalog"
	"github.com/beyourshelf/bookstore/internal/checkout"
	"github.com/beyourshelf/bookstore/internal/entity"
	"github.com/beyourshelf/bookstore/internal/inventory"
	"github.com/beyourshelf/bookstore/internal/order"
	"github.com/beyourshelf/bookstore/internal/payment"
	"github.com/beyourshelf/bookstore/internal/user"
)

//go:embed templates/*.html
var templateFS embed.FS

type Server struct {
	users     *user.Service
	session   *user.Session
	carts     *cart.Service
	catalog   *catalog.Service
	orders    *order.Service
	inventory *inventory.Service
	provider  payment.Provider

	tpl *template.Template

	// Per-user runtime state: the loaded cart and, while a payment screen
	// is open, the active checkout session.
	mu        sync.Mutex
	open      map[int64]*cart.Cart
	checkouts map[int64]*checkout.Session
}

func NewServer(users *user.Service, carts *cart.Service, cat *catalog.Service, orders *order.Service, inv *inventory.Service, provider payment.Provider) *Server {
	tpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	return &Server{
		users:     users,
		session:   user.NewSession(),
		carts:     carts,
		catalog:   cat,
		orders:    orders,
		inventory: inv,
		provider:  provider,
		tpl:       tpl,
		open:      make(map[int64]*cart.Cart),
		checkouts: make(map[int64]*checkout.Session),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /register", s.handleRegisterForm)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /profile", s.handleProfileForm)
	mux.HandleFunc("POST /profile", s.handleProfile)

	mux.HandleFunc("GET /cart", s.handleCart)
	mux.HandleFunc("POST /cart/add", s.handleCartAdd)
	mux.HandleFunc("POST /cart/quantity", s.handleCartQuantity)
	mux.HandleFunc("POST /cart/remove", s.handleCartRemove)
	mux.HandleFunc("POST /cart/clear", s.handleCartClear)

	mux.HandleFunc("POST /checkout", s.handleCheckout)
	mux.HandleFunc("GET /payment", s.handlePaymentForm)
	mux.HandleFunc("POST /payment", s.handlePayment)
	mux.HandleFunc("POST /payment/cancel", s.handlePaymentCancel)

	mux.HandleFunc("GET /orders", s.handleOrders)

	mux.HandleFunc("GET /admin/books", s.handleAdminBooks)
	mux.HandleFunc("POST /admin/books/save", s.handleAdminBookSave)
	mux.HandleFunc("POST /admin/books/delete", s.handleAdminBookDelete)
	mux.HandleFunc("GET /admin/users", s.handleAdminUsers)
	mux.HandleFunc("POST /admin/users/save", s.handleAdminUserSave)
	mux.HandleFunc("POST /admin/users/delete", s.handleAdminUserDelete)
	mux.HandleFunc("GET /admin/orders", s.handleAdminOrders)
	mux.HandleFunc("POST /admin/orders/delete", s.handleAdminOrderDelete)

	return cors.Default().Handler(s.logRequests(mux))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("http")
	})
}

// currentUser resolves the signed-in user from the uid cookie, consulting
// the session holder first and the repository only on a miss (a valid
// cookie surviving a restart). Nil when not signed in.
func (s *Server) currentUser(r *http.Request) *entity.User {
	c, err := r.Cookie("uid")
	if err != nil {
		return nil
	}
	id, err := strconv.ParseInt(c.Value, 10, 64)
	if err != nil {
		return nil
	}
	if u := s.session.Current(id); u != nil {
		return u
	}
	u, err := s.users.Get(r.Context(), id)
	if err != nil {
		return nil
	}
	s.session.SignIn(u)
	return u
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) *entity.User {
	u := s.currentUser(r)
	if u == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
	return u
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) *entity.User {
	u := s.currentUser(r)
	if u == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil
	}
	if !u.Admin {
		http.Error(w, "admins only", http.StatusForbidden)
		return nil
	}
	return u
}

// userCart returns the loaded cart for the user, loading it on first use.
func (s *Server) userCart(ctx context.Context, userID int64) (*cart.Cart, error) {
	s.mu.Lock()
	c, ok := s.open[userID]
	s.mu.Unlock()
	if ok {
		return c, nil
	}
	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.open[userID] = c
	s.mu.Unlock()
	return c, nil
}

func (s *Server) activeCheckout(userID int64) *checkout.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkouts[userID]
}

func (s *Server) setCheckout(userID int64, sess *checkout.Session) {
	s.mu.Lock()
	if sess == nil {
		delete(s.checkouts, userID)
	} else {
		s.checkouts[userID] = sess
	}
	s.mu.Unlock()
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Str("template", name).Err(err).Msg("render failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func formInt64(r *http.Request, key string) int64 {
	v, _ := strconv.ParseInt(r.FormValue(key), 10, 64)
	return v
}

func formInt32(r *http.Request, key string) int32 {
	v, _ := strconv.ParseInt(r.FormValue(key), 10, 32)
	return int32(v)
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
