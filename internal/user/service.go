// Package user covers registration, login, and profile management.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/beyourshelf/bookstore/internal/entity"
	"github.com/beyourshelf/bookstore/internal/events"
	"github.com/beyourshelf/bookstore/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrMissingFields      = errors.New("username and password are required")
)

type Repository interface {
	Create(ctx context.Context, u *entity.User) error
	ByUsername(ctx context.Context, username string) (*entity.User, error)
	ByID(ctx context.Context, id int64) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	UpdateProfile(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id int64) error
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

// Register creates a new account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, username, firstName, lastName, password string, admin bool) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}
	if existing, err := s.repo.ByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hash),
		Admin:        admin,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("register %s: %w", username, err)
	}

	_ = s.pub.Publish(ctx, events.UserRegistered, events.UserRegisteredPayload{
		UserID:   u.ID,
		Username: u.Username,
	})
	log.Info().Str("username", username).Int64("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Authenticate verifies credentials. Rows that still carry a legacy
// plaintext password are compared directly and, on a match, migrated to a
// bcrypt hash in place.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := s.repo.ByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if isBcryptHash(u.PasswordHash) {
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return nil, ErrInvalidCredentials
		}
		return u, nil
	}

	// Legacy plaintext row: compare, then migrate.
	if u.PasswordHash != password {
		return nil, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err == nil {
		migrated := *u
		migrated.PasswordHash = string(hash)
		if err := s.repo.UpdateProfile(ctx, &migrated); err != nil {
			log.Warn().Str("username", username).Err(err).Msg("plaintext password migration failed")
		} else {
			u.PasswordHash = migrated.PasswordHash
			log.Info().Str("username", username).Msg("legacy password migrated to bcrypt")
		}
	}
	return u, nil
}

// UpdateProfile rewrites the profile row. A blank password keeps the
// stored hash; a plaintext password is hashed before storing; a value that
// is already a bcrypt hash is stored as-is.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, username, firstName, lastName, password string, admin bool) error {
	current, err := s.repo.ByID(ctx, userID)
	if err != nil {
		return err
	}

	toStore := current.PasswordHash
	if p := strings.TrimSpace(password); p != "" {
		if isBcryptHash(p) {
			toStore = p
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			toStore = string(hash)
		}
	}

	updated := entity.User{
		ID:           userID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: toStore,
		Admin:        admin,
	}
	return s.repo.UpdateProfile(ctx, &updated)
}

func (s *Service) Get(ctx context.Context, userID int64) (*entity.User, error) {
	return s.repo.ByID(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]entity.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, userID int64) error {
	return s.repo.Delete(ctx, userID)
}

func isBcryptHash(v string) bool {
	return strings.HasPrefix(v, "$2a$") || strings.HasPrefix(v, "$2b$") || strings.HasPrefix(v, "$2y$")
}
