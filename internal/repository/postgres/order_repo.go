package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/shopkeeper/internal/errs"
	"github.com/and161185/shopkeeper/internal/model"
)

// OrderRepo implements OrderRepository using PostgreSQL.
type OrderRepo struct{ db *DB }

// NewOrderRepo constructs an order repository.
func NewOrderRepo(db *DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts the order and all its items in one transaction.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const ins = `
INSERT INTO orders (id, user_id, total_cents, currency, status)
VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.Exec(ctx, ins, o.ID, o.UserID, o.TotalCents, o.Currency, o.Status); err != nil {
		return err
	}

	const insItem = `
INSERT INTO order_items (order_id, product_id, name, price_cents, quantity)
VALUES ($1, $2, $3, $4, $5)`
	for _, it := range o.Items {
		if _, err = tx.Exec(ctx, insItem, o.ID, it.ProductID, it.Name, it.PriceCents, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Get loads an order with its items ordered as inserted.
func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	const q = `
SELECT id, user_id, total_cents, currency, status, paypal_order_id, paypal_txn_id, created_at, updated_at
FROM orders WHERE id=$1`
	var o model.Order
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(
		&o.ID, &o.UserID, &o.TotalCents, &o.Currency, &o.Status,
		&o.PaypalOrderID, &o.PaypalTxnID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	const qi = `
SELECT product_id, name, price_cents, quantity
FROM order_items WHERE order_id=$1 ORDER BY line_no ASC`
	rows, err := r.db.Pool.Query(ctx, qi, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.PriceCents, &it.Quantity); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus performs a guarded status transition. The WHERE clause on the
// current status makes concurrent return/cancel callbacks settle on exactly
// one winner.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, paypalOrderID, paypalTxnID string) error {
	const q = `
UPDATE orders
SET status=$3,
    paypal_order_id = CASE WHEN $4 <> '' THEN $4 ELSE paypal_order_id END,
    paypal_txn_id   = CASE WHEN $5 <> '' THEN $5 ELSE paypal_txn_id END,
    updated_at = now()
WHERE id=$1 AND status=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, from, to, paypalOrderID, paypalTxnID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// either the order does not exist or it already left `from`
		if _, gerr := r.Get(ctx, id); gerr != nil {
			return gerr
		}
		return errs.ErrConflict
	}
	return nil
}
