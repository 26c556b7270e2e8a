package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/store"
)

func (q *queries) CreateProduct(ctx context.Context, p model.Product) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO products(id, name, description, price, category_id, stock, images, is_active, created_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.Stock, p.Images, p.IsActive, p.CreatedAt,
	)
	return mapErr(err)
}

func (q *queries) GetProduct(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := q.db.QueryRow(ctx,
		`SELECT id, name, description, price, category_id, stock, images, is_active, created_at
		 FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.Stock, &p.Images, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

func (q *queries) ListProducts(ctx context.Context, f store.ProductFilter) ([]model.Product, int, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 6)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = "+arg(f.CategoryID))
	}
	if f.MinPrice != nil {
		where = append(where, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= "+arg(*f.MaxPrice))
	}
	if f.Search != "" {
		ph := arg("%" + f.Search + "%")
		where = append(where, "(name ILIKE "+ph+" OR description ILIKE "+ph+")")
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := q.db.QueryRow(ctx, "SELECT count(*) FROM products"+cond, args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}

	page, size := store.Page(f.Page, f.PageSize)
	limit := arg(size)
	offset := arg((page - 1) * size)
	rows, err := q.db.Query(ctx,
		`SELECT id, name, description, price, category_id, stock, images, is_active, created_at
		 FROM products`+cond+` ORDER BY created_at DESC, id LIMIT `+limit+` OFFSET `+offset,
		args...,
	)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.Stock, &p.Images, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (q *queries) UpdateProduct(ctx context.Context, p model.Product) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE products SET name=$2, description=$3, price=$4, category_id=$5, stock=$6, images=$7, is_active=$8
		 WHERE id=$1`,
		p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.Stock, p.Images, p.IsActive,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (q *queries) DeleteProduct(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DecrementStock relies on the conditional UPDATE re-evaluating its WHERE
// clause under the row lock, which makes the decrement safe under
// concurrent checkouts.
func (q *queries) DecrementStock(ctx context.Context, id string, qty int64) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`, id, qty)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, id).Scan(&exists); err != nil {
			return mapErr(err)
		}
		if !exists {
			return store.ErrNotFound
		}
		return store.ErrInsufficientStock
	}
	return nil
}

func (q *queries) IncrementStock(ctx context.Context, id string, qty int64) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE products SET stock = stock + $2 WHERE id = $1`, id, qty)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (q *queries) CreateCategory(ctx context.Context, c model.Category) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO categories(id, name, description, image, created_at) VALUES($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Description, c.Image, c.CreatedAt,
	)
	return mapErr(err)
}

func (q *queries) GetCategory(ctx context.Context, id string) (model.Category, error) {
	var c model.Category
	err := q.db.QueryRow(ctx,
		`SELECT id, name, description, image, created_at FROM categories WHERE id=$1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.CreatedAt)
	if err != nil {
		return model.Category{}, mapErr(err)
	}
	return c, nil
}

func (q *queries) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, name, description, image, created_at FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *queries) UpdateCategory(ctx context.Context, c model.Category) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE categories SET name=$2, description=$3, image=$4 WHERE id=$1`,
		c.ID, c.Name, c.Description, c.Image,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (q *queries) DeleteCategory(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
