package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/store"
)

func (v *view) CreateProduct(_ context.Context, p model.Product) error {
	if _, ok := v.d.products[p.ID]; ok {
		return store.ErrConflict
	}
	v.d.products[p.ID] = productRec{p: p, seq: v.d.seq()}
	return nil
}

func (v *view) GetProduct(_ context.Context, id string) (model.Product, error) {
	rec, ok := v.d.products[id]
	if !ok {
		return model.Product{}, store.ErrNotFound
	}
	return rec.p, nil
}

func (v *view) ListProducts(_ context.Context, f store.ProductFilter) ([]model.Product, int, error) {
	search := strings.ToLower(f.Search)
	recs := make([]productRec, 0, len(v.d.products))
	for _, rec := range v.d.products {
		p := rec.p
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	total := len(recs)
	page, size := store.Page(f.Page, f.PageSize)
	out := paginate(recs, page, size)
	products := make([]model.Product, 0, len(out))
	for _, rec := range out {
		products = append(products, rec.p)
	}
	return products, total, nil
}

func (v *view) UpdateProduct(_ context.Context, p model.Product) error {
	rec, ok := v.d.products[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	rec.p = p
	v.d.products[p.ID] = rec
	return nil
}

func (v *view) DeleteProduct(_ context.Context, id string) error {
	if _, ok := v.d.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(v.d.products, id)
	return nil
}

func (v *view) DecrementStock(_ context.Context, id string, qty int64) error {
	rec, ok := v.d.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if rec.p.Stock < qty {
		return store.ErrInsufficientStock
	}
	rec.p.Stock -= qty
	v.d.products[id] = rec
	return nil
}

func (v *view) IncrementStock(_ context.Context, id string, qty int64) error {
	rec, ok := v.d.products[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.p.Stock += qty
	v.d.products[id] = rec
	return nil
}

func (v *view) CreateCategory(_ context.Context, c model.Category) error {
	for _, rec := range v.d.categories {
		if rec.c.Name == c.Name {
			return store.ErrConflict
		}
	}
	if _, ok := v.d.categories[c.ID]; ok {
		return store.ErrConflict
	}
	v.d.categories[c.ID] = categoryRec{c: c, seq: v.d.seq()}
	return nil
}

func (v *view) GetCategory(_ context.Context, id string) (model.Category, error) {
	rec, ok := v.d.categories[id]
	if !ok {
		return model.Category{}, store.ErrNotFound
	}
	return rec.c, nil
}

func (v *view) ListCategories(_ context.Context) ([]model.Category, error) {
	recs := make([]categoryRec, 0, len(v.d.categories))
	for _, rec := range v.d.categories {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]model.Category, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.c)
	}
	return out, nil
}

func (v *view) UpdateCategory(_ context.Context, c model.Category) error {
	rec, ok := v.d.categories[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range v.d.categories {
		if id != c.ID && other.c.Name == c.Name {
			return store.ErrConflict
		}
	}
	rec.c = c
	v.d.categories[c.ID] = rec
	return nil
}

func (v *view) DeleteCategory(_ context.Context, id string) error {
	if _, ok := v.d.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(v.d.categories, id)
	return nil
}

func paginate[T any](recs []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(recs) {
		return nil
	}
	end := start + size
	if end > len(recs) {
		end = len(recs)
	}
	return recs[start:end]
}

// Locked wrappers so *Store satisfies store.CatalogStore directly.

func (s *Store) CreateProduct(ctx context.Context, p model.Product) error {
	return s.write(func(v *view) error { return v.CreateProduct(ctx, p) })
}

func (s *Store) GetProduct(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := s.read(func(v *view) error {
		var err error
		p, err = v.GetProduct(ctx, id)
		return err
	})
	return p, err
}

func (s *Store) ListProducts(ctx context.Context, f store.ProductFilter) ([]model.Product, int, error) {
	var (
		out   []model.Product
		total int
	)
	err := s.read(func(v *view) error {
		var err error
		out, total, err = v.ListProducts(ctx, f)
		return err
	})
	return out, total, err
}

func (s *Store) UpdateProduct(ctx context.Context, p model.Product) error {
	return s.write(func(v *view) error { return v.UpdateProduct(ctx, p) })
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.write(func(v *view) error { return v.DeleteProduct(ctx, id) })
}

func (s *Store) DecrementStock(ctx context.Context, id string, qty int64) error {
	return s.write(func(v *view) error { return v.DecrementStock(ctx, id, qty) })
}

func (s *Store) IncrementStock(ctx context.Context, id string, qty int64) error {
	return s.write(func(v *view) error { return v.IncrementStock(ctx, id, qty) })
}

func (s *Store) CreateCategory(ctx context.Context, c model.Category) error {
	return s.write(func(v *view) error { return v.CreateCategory(ctx, c) })
}

func (s *Store) GetCategory(ctx context.Context, id string) (model.Category, error) {
	var c model.Category
	err := s.read(func(v *view) error {
		var err error
		c, err = v.GetCategory(ctx, id)
		return err
	})
	return c, err
}

func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := s.read(func(v *view) error {
		var err error
		out, err = v.ListCategories(ctx)
		return err
	})
	return out, err
}

func (s *Store) UpdateCategory(ctx context.Context, c model.Category) error {
	return s.write(func(v *view) error { return v.UpdateCategory(ctx, c) })
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.write(func(v *view) error { return v.DeleteCategory(ctx, id) })
}
