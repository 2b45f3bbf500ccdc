package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/beyourshelf/bookstore/internal/entity"
)

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository { return &BookRepository{db: db} }

const bookColumns = `id, title, author, physical_copies, price_cents, sold_copies`

func (r *BookRepository) List(ctx context.Context) ([]entity.Book, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

// Search matches the keyword against title and author, case-insensitively.
func (r *BookRepository) Search(ctx context.Context, keyword string) ([]entity.Book, error) {
	if strings.TrimSpace(keyword) == "" {
		return r.List(ctx)
	}
	qp := "%" + strings.ToLower(keyword) + "%"
	rows, err := r.db.QueryContext(ctx, `
SELECT `+bookColumns+` FROM books
WHERE lower(title) LIKE ? OR lower(author) LIKE ?
ORDER BY id`, qp, qp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

func (r *BookRepository) TopSellers(ctx context.Context, limit int) ([]entity.Book, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY sold_copies DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

func (r *BookRepository) Get(ctx context.Context, id int64) (*entity.Book, error) {
	var b entity.Book
	err := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id=?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.PhysicalCopies, &b.PriceCents, &b.SoldCopies)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookRepository) Add(ctx context.Context, b *entity.Book) error {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO books(title, author, physical_copies, price_cents, sold_copies)
VALUES(?,?,?,?,?)`, b.Title, b.Author, b.PhysicalCopies, b.PriceCents, b.SoldCopies)
	if err != nil {
		return err
	}
	b.ID, err = res.LastInsertId()
	return err
}

func (r *BookRepository) Update(ctx context.Context, b *entity.Book) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE books SET title=?, author=?, physical_copies=?, price_cents=?, sold_copies=?
WHERE id=?`, b.Title, b.Author, b.PhysicalCopies, b.PriceCents, b.SoldCopies, b.ID)
	return err
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
	return err
}

func (r *BookRepository) Stock(ctx context.Context, id int64) (int32, error) {
	var copies int32
	err := r.db.QueryRowContext(ctx,
		`SELECT physical_copies FROM books WHERE id=?`, id).Scan(&copies)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return copies, err
}

// ReduceStock decrements physical copies by qty.
func (r *BookRepository) ReduceStock(ctx context.Context, id int64, qty int32) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE books SET physical_copies = physical_copies - ? WHERE id=?`, qty, id)
	return err
}

// AddSold increments the sold counter by qty.
func (r *BookRepository) AddSold(ctx context.Context, id int64, qty int32) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE books SET sold_copies = sold_copies + ? WHERE id=?`, qty, id)
	return err
}

func scanBooks(rows *sql.Rows) ([]entity.Book, error) {
	var out []entity.Book
	for rows.Next() {
		var b entity.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.PhysicalCopies, &b.PriceCents, &b.SoldCopies); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
