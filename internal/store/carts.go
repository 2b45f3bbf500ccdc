package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/beyourshelf/bookstore/internal/entity"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository { return &CartRepository{db: db} }

// GetOrCreate returns the id of the user's active cart, inserting a fresh
// row when the user has none.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var cartID int64
	err = tx.QueryRowContext(ctx,
		`SELECT cart_id FROM cart WHERE user_id=? AND status='active'`, userID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO cart(user_id, status) VALUES(?, 'active')`, userID)
		if err != nil {
			return 0, err
		}
		cartID, err = res.LastInsertId()
		if err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}
	return cartID, tx.Commit()
}

func (r *CartRepository) Items(ctx context.Context, cartID int64) ([]entity.CartItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT book_id, quantity FROM cart_items WHERE cart_id=? ORDER BY book_id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.CartItem
	for rows.Next() {
		var it entity.CartItem
		if err := rows.Scan(&it.BookID, &it.Qty); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpsertItem adds qty to the row for (cart, book), inserting it when absent.
func (r *CartRepository) UpsertItem(ctx context.Context, cartID, bookID int64, qty int32) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO cart_items(cart_id, book_id, quantity) VALUES(?,?,?)
ON CONFLICT(cart_id, book_id) DO UPDATE SET quantity = quantity + excluded.quantity`,
		cartID, bookID, qty)
	return err
}

// SetQuantity overwrites a row's quantity, inserting the row when absent;
// qty <= 0 deletes it.
func (r *CartRepository) SetQuantity(ctx context.Context, cartID, bookID int64, qty int32) error {
	if qty <= 0 {
		return r.RemoveItem(ctx, cartID, bookID)
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO cart_items(cart_id, book_id, quantity) VALUES(?,?,?)
ON CONFLICT(cart_id, book_id) DO UPDATE SET quantity = excluded.quantity`,
		cartID, bookID, qty)
	return err
}

func (r *CartRepository) RemoveItem(ctx context.Context, cartID, bookID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id=? AND book_id=?`, cartID, bookID)
	return err
}

// RemoveItems deletes the given books from the cart in one statement batch.
func (r *CartRepository) RemoveItems(ctx context.Context, cartID int64, bookIDs []int64) error {
	if len(bookIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`DELETE FROM cart_items WHERE cart_id=? AND book_id=?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range bookIDs {
		if _, err := stmt.ExecContext(ctx, cartID, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *CartRepository) Clear(ctx context.Context, cartID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id=?`, cartID)
	return err
}
