package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/beyourshelf/bookstore/internal/entity"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO users(username, password, first_name, last_name, is_admin)
VALUES(?,?,?,?,?)`, u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Admin)
	if err != nil {
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (r *UserRepository) ByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.one(ctx, `SELECT id, username, password, first_name, last_name, is_admin
FROM users WHERE username=?`, username)
}

func (r *UserRepository) ByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.one(ctx, `SELECT id, username, password, first_name, last_name, is_admin
FROM users WHERE id=?`, id)
}

func (r *UserRepository) one(ctx context.Context, query string, arg any) (*entity.User, error) {
	var u entity.User
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Admin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]entity.User, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, username, password, first_name, last_name, is_admin FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.User
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Admin); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateProfile overwrites every profile column of the row; the caller
// decides what the stored password hash should be.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *entity.User) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET username=?, first_name=?, last_name=?, password=?, is_admin=?
WHERE id=?`, u.Username, u.FirstName, u.LastName, u.PasswordHash, u.Admin, u.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	return err
}
