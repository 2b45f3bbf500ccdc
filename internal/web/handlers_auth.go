package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/beyourshelf/bookstore/internal/entity"
	"github.com/beyourshelf/bookstore/internal/user"
)

type authPage struct {
	User  *entity.User
	Error string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "login.html", authPage{User: s.currentUser(r)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		msg := "login failed"
		if errors.Is(err, user.ErrInvalidCredentials) {
			msg = "invalid username or password"
		}
		s.render(w, "login.html", authPage{Error: msg})
		return
	}
	s.session.SignIn(u)
	setSessionCookies(w, u)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if u := s.currentUser(r); u != nil {
		s.session.SignOut(u.ID)
		s.mu.Lock()
		delete(s.open, u.ID)
		delete(s.checkouts, u.ID)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: "uid", Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: "uname", Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "register.html", authPage{User: s.currentUser(r)})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Register(r.Context(),
		r.FormValue("username"),
		r.FormValue("first_name"),
		r.FormValue("last_name"),
		r.FormValue("password"),
		false)
	if err != nil {
		msg := "registration failed"
		switch {
		case errors.Is(err, user.ErrUsernameTaken):
			msg = "that username is taken"
		case errors.Is(err, user.ErrMissingFields):
			msg = "username and password are required"
		}
		s.render(w, "register.html", authPage{Error: msg})
		return
	}
	s.session.SignIn(u)
	setSessionCookies(w, u)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type profilePage struct {
	User    *entity.User
	Error   string
	Updated bool
}

func (s *Server) handleProfileForm(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	s.render(w, "profile.html", profilePage{User: u})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	err := s.users.UpdateProfile(r.Context(), u.ID,
		u.Username,
		r.FormValue("first_name"),
		r.FormValue("last_name"),
		r.FormValue("password"),
		u.Admin)
	if err != nil {
		s.render(w, "profile.html", profilePage{User: u, Error: "could not update profile"})
		return
	}
	updated, err := s.users.Get(r.Context(), u.ID)
	if err != nil {
		updated = u
	}
	s.session.SignIn(updated)
	s.render(w, "profile.html", profilePage{User: updated, Updated: true})
}

func setSessionCookies(w http.ResponseWriter, u *entity.User) {
	http.SetCookie(w, &http.Cookie{Name: "uid", Value: strconv.FormatInt(u.ID, 10), Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: "uname", Value: u.Username, Path: "/"})
}
