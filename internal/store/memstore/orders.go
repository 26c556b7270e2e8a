package memstore

import (
	"context"
	"slices"
	"sort"

	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/store"
)

func (v *view) CreateOrder(_ context.Context, o model.Order) error {
	if _, ok := v.d.orders[o.ID]; ok {
		return store.ErrConflict
	}
	o.Items = slices.Clone(o.Items)
	v.d.orders[o.ID] = orderRec{o: o, seq: v.d.seq()}
	return nil
}

func (v *view) GetOrder(_ context.Context, id string) (model.Order, error) {
	rec, ok := v.d.orders[id]
	if !ok {
		return model.Order{}, store.ErrNotFound
	}
	o := rec.o
	o.Items = slices.Clone(o.Items)
	return o, nil
}

func (v *view) ListOrdersByUser(_ context.Context, userID string, f store.OrderFilter) ([]model.Order, int, error) {
	recs := make([]orderRec, 0)
	for _, rec := range v.d.orders {
		if rec.o.UserID != userID {
			continue
		}
		if f.Status != "" && rec.o.Status != f.Status {
			continue
		}
		recs = append(recs, rec)
	}
	// newest first
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	total := len(recs)
	page, size := store.Page(f.Page, f.PageSize)
	out := paginate(recs, page, size)
	orders := make([]model.Order, 0, len(out))
	for _, rec := range out {
		o := rec.o
		o.Items = slices.Clone(o.Items)
		orders = append(orders, o)
	}
	return orders, total, nil
}

func (v *view) UpdateOrder(_ context.Context, o model.Order) error {
	rec, ok := v.d.orders[o.ID]
	if !ok {
		return store.ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	rec.o = o
	v.d.orders[o.ID] = rec
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, o model.Order) error {
	return s.write(func(v *view) error { return v.CreateOrder(ctx, o) })
}

func (s *Store) GetOrder(ctx context.Context, id string) (model.Order, error) {
	var o model.Order
	err := s.read(func(v *view) error {
		var err error
		o, err = v.GetOrder(ctx, id)
		return err
	})
	return o, err
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string, f store.OrderFilter) ([]model.Order, int, error) {
	var (
		out   []model.Order
		total int
	)
	err := s.read(func(v *view) error {
		var err error
		out, total, err = v.ListOrdersByUser(ctx, userID, f)
		return err
	})
	return out, total, err
}

func (s *Store) UpdateOrder(ctx context.Context, o model.Order) error {
	return s.write(func(v *view) error { return v.UpdateOrder(ctx, o) })
}
