package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/beyourshelf/bookstore/internal/entity"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository { return &OrderRepository{db: db} }

// Save inserts the order and its items in one transaction. On success the
// generated order id is written back into o; on any failure nothing is
// persisted.
func (r *OrderRepository) Save(ctx context.Context, o *entity.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT INTO orders(order_number, user_id, total_cents, order_unix)
VALUES(?,?,?,?)`, o.OrderNumber, o.UserID, o.TotalCents, o.PlacedAt.Unix())
	if err != nil {
		return err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO order_items(order_id, book_id, title, quantity, unit_cents, line_cents)
VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range o.Items {
		it := &o.Items[i]
		if _, err := stmt.ExecContext(ctx,
			orderID, it.BookID, it.Title, it.Qty, it.UnitCents, it.LineCents); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	o.ID = orderID
	for i := range o.Items {
		o.Items[i].OrderID = orderID
	}
	return nil
}

func (r *OrderRepository) ByUser(ctx context.Context, userID int64) ([]entity.Order, error) {
	return r.fetch(ctx, `
SELECT order_id, order_number, user_id, total_cents, order_unix
FROM orders WHERE user_id=? ORDER BY order_unix DESC`, userID)
}

func (r *OrderRepository) All(ctx context.Context) ([]entity.Order, error) {
	return r.fetch(ctx, `
SELECT order_id, order_number, user_id, total_cents, order_unix
FROM orders ORDER BY order_unix DESC`)
}

func (r *OrderRepository) ByID(ctx context.Context, orderID int64) (*entity.Order, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT order_id, order_number, user_id, total_cents, order_unix
FROM orders WHERE order_id=?`, orderID)

	o, err := scanOrder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Items, err = r.items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Delete removes an order and its items in one transaction. Returns
// ErrNotFound when no such order exists.
func (r *OrderRepository) Delete(ctx context.Context, orderID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_items WHERE order_id=?`, orderID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE order_id=?`, orderID)
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
	return tx.Commit()
}

func (r *OrderRepository) fetch(ctx context.Context, query string, args ...any) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items, err = r.items(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *OrderRepository) items(ctx context.Context, orderID int64) ([]entity.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT order_item_id, order_id, book_id, title, quantity, unit_cents, line_cents
FROM order_items WHERE order_id=?`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.OrderItem
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Title, &it.Qty, &it.UnitCents, &it.LineCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanOrder(scan func(...any) error) (*entity.Order, error) {
	var o entity.Order
	var placed int64
	if err := scan(&o.ID, &o.OrderNumber, &o.UserID, &o.TotalCents, &placed); err != nil {
		return nil, err
	}
	o.PlacedAt = time.Unix(placed, 0).UTC()
	return &o, nil
}
