package web

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beyourshelf/bookstore/internal/checkout"
	"github.com/beyourshelf/bookstore/internal/entity"
	"github.com/beyourshelf/bookstore/internal/payment"
)

type paymentPage struct {
	User       *entity.User
	TotalLabel string
	Error      string
}

func (s *Server) handlePaymentForm(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	sess := s.activeCheckout(u.ID)
	if sess == nil || sess.State() != checkout.StateReserved {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	s.render(w, "payment.html", paymentPage{User: u, TotalLabel: sess.Total().String()})
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	sess := s.activeCheckout(u.ID)
	if sess == nil || sess.State() != checkout.StateReserved {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	details := payment.Details{
		CardNumber: r.FormValue("card_number"),
		HolderName: r.FormValue("holder_name"),
		Expiry:     r.FormValue("expiry"),
		CVV:        r.FormValue("cvv"),
	}
	o, err := sess.Finalize(r.Context(), details)
	if err != nil && o == nil {
		if sess.State() == checkout.StateReserved {
			// Malformed card details: the reservation survives so the
			// user can correct the form.
			s.render(w, "payment.html", paymentPage{
				User:       u,
				TotalLabel: sess.Total().String(),
				Error:      err.Error(),
			})
			return
		}
		// Declined or save failure: reservation already reverted.
		s.setCheckout(u.ID, nil)
		redirectErr(w, r, "/cart", "payment failed, please try again")
		return
	}

	s.setCheckout(u.ID, nil)
	page := confirmationPage{
		User:        u,
		Name:        u.FullName(),
		OrderNumber: o.OrderNumber,
		TotalLabel:  o.Total().String(),
	}
	if page.Name == "" {
		page.Name = u.Username
	}
	if err != nil {
		// Payment captured and order committed; only the post-commit
		// bookkeeping (stock counters or cart cleanup) failed.
		log.Warn().Str("order_number", o.OrderNumber).Err(err).Msg("order placed, bookkeeping incomplete")
		page.Warning = "Part of the post-order cleanup failed; your cart and the catalog stock may briefly be out of date."
	}
	s.render(w, "confirmation.html", page)
}

// handlePaymentCancel is the window-close path: release the reservation
// without touching persistent state.
func (s *Server) handlePaymentCancel(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	if sess := s.activeCheckout(u.ID); sess != nil {
		sess.Cancel()
		s.setCheckout(u.ID, nil)
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

type confirmationPage struct {
	User        *entity.User
	Name        string
	OrderNumber string
	TotalLabel  string
	Warning     string
}

type orderView struct {
	entity.Order
	TotalLabel  string
	PlacedLabel string
}

type ordersPage struct {
	User   *entity.User
	Orders []orderView
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	orders, err := s.orders.History(r.Context(), u.ID)
	if err != nil {
		http.Error(w, "orders unavailable", http.StatusInternalServerError)
		return
	}
	s.render(w, "orders.html", ordersPage{User: u, Orders: toOrderViews(orders)})
}

func toOrderViews(orders []entity.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderView{
			Order:       o,
			TotalLabel:  o.Total().String(),
			PlacedLabel: o.PlacedAt.Format(time.DateTime),
		})
	}
	return out
}
