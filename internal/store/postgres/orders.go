package postgres

import (
	"context"
	"fmt"

	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/store"
)

func (q *queries) CreateOrder(ctx context.Context, o model.Order) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO orders(id, user_id, total_amount, status, shipping_address, payment_method, created_at, updated_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.UserID, o.TotalAmount, o.Status, o.ShippingAddress, o.PaymentMethod, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	for i, it := range o.Items {
		_, err = q.db.Exec(ctx,
			`INSERT INTO order_items(order_id, position, product_id, quantity, price) VALUES($1, $2, $3, $4, $5)`,
			o.ID, i, it.ProductID, it.Quantity, it.Price,
		)
		if err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (q *queries) GetOrder(ctx context.Context, id string) (model.Order, error) {
	var o model.Order
	err := q.db.QueryRow(ctx,
		`SELECT id, user_id, total_amount, status, shipping_address, payment_method, created_at, updated_at
		 FROM orders WHERE id=$1`, id,
	).Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.ShippingAddress, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return model.Order{}, mapErr(err)
	}
	items, err := q.orderItems(ctx, o.ID)
	if err != nil {
		return model.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (q *queries) orderItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := q.db.Query(ctx,
		`SELECT product_id, quantity, price FROM order_items WHERE order_id=$1 ORDER BY position`, orderID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (q *queries) ListOrdersByUser(ctx context.Context, userID string, f store.OrderFilter) ([]model.Order, int, error) {
	cond := " WHERE user_id = $1"
	args := []any{userID}
	if f.Status != "" {
		args = append(args, f.Status)
		cond += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := q.db.QueryRow(ctx, "SELECT count(*) FROM orders"+cond, args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}

	page, size := store.Page(f.Page, f.PageSize)
	args = append(args, size, (page-1)*size)
	rows, err := q.db.Query(ctx,
		fmt.Sprintf(`SELECT id, user_id, total_amount, status, shipping_address, payment_method, created_at, updated_at
		 FROM orders%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.ShippingAddress, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		items, err := q.orderItems(ctx, out[i].ID)
		if err != nil {
			return nil, 0, err
		}
		out[i].Items = items
	}
	return out, total, nil
}

// UpdateOrder persists the mutable order fields; line items are immutable
// after creation.
func (q *queries) UpdateOrder(ctx context.Context, o model.Order) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`,
		o.ID, o.Status, o.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
