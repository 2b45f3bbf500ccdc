package user

import (
	"sync"

	"github.com/beyourshelf/bookstore/internal/entity"
)

// Session holds the signed-in users, keyed by user id. One value owned by
// the application root; the web layer resolves request identity through
// it and only falls back to the repository on a miss.
type Session struct {
	mu    sync.RWMutex
	users map[int64]*entity.User
}

func NewSession() *Session {
	return &Session{users: make(map[int64]*entity.User)}
}

// SignIn records (or refreshes) the signed-in user.
func (s *Session) SignIn(u *entity.User) {
	if u == nil {
		return
	}
	cp := *u
	s.mu.Lock()
	s.users[cp.ID] = &cp
	s.mu.Unlock()
}

func (s *Session) SignOut(userID int64) {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
}

// Current returns the signed-in user with the given id, nil when that
// user is not signed in. The returned value is a copy.
func (s *Session) Current(userID int64) *entity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (s *Session) SignedIn(userID int64) bool { return s.Current(userID) != nil }
