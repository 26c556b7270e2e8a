// Package memstore is the in-memory storage backend. It is the default
// backend and the one unit tests run against.
package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/store"
)

// Store keeps every collection in maps guarded by a single RWMutex.
// Tx snapshots the maps up front and restores them when the callback
// fails, so a failed transaction leaves nothing behind.
type Store struct {
	mu sync.RWMutex
	d  data
}

// New returns an empty Store.
func New() *Store {
	return &Store{d: newData()}
}

// Close is a no-op; it exists to satisfy store.Store.
func (s *Store) Close() {}

// Tx runs fn under the write lock against unlocked views of the data.
// Reads inside fn observe writes made earlier in the same fn.
func (s *Store) Tx(ctx context.Context, fn func(store.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.d.clone()
	if err := fn(&view{d: &s.d}); err != nil {
		s.d = snap
		return err
	}
	return nil
}

type productRec struct {
	p   model.Product
	seq uint64
}

type categoryRec struct {
	c   model.Category
	seq uint64
}

type orderRec struct {
	o   model.Order
	seq uint64
}

type userRec struct {
	u   model.User
	seq uint64
}

type roleRec struct {
	r   model.RoleDef
	seq uint64
}

type data struct {
	nextSeq    uint64
	products   map[string]productRec
	categories map[string]categoryRec
	orders     map[string]orderRec
	users      map[string]userRec
	roles      map[string]roleRec
}

func newData() data {
	return data{
		products:   make(map[string]productRec),
		categories: make(map[string]categoryRec),
		orders:     make(map[string]orderRec),
		users:      make(map[string]userRec),
		roles:      make(map[string]roleRec),
	}
}

// clone copies the maps only. Stored values are replaced wholesale on
// write, never mutated in place, so sharing them with a snapshot is safe.
func (d *data) clone() data {
	return data{
		nextSeq:    d.nextSeq,
		products:   maps.Clone(d.products),
		categories: maps.Clone(d.categories),
		orders:     maps.Clone(d.orders),
		users:      maps.Clone(d.users),
		roles:      maps.Clone(d.roles),
	}
}

func (d *data) seq() uint64 {
	d.nextSeq++
	return d.nextSeq
}

// view implements store.Stores without locking; callers hold s.mu.
type view struct {
	d *data
}

func (s *Store) read(fn func(*view) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&view{d: &s.d})
}

func (s *Store) write(fn func(*view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&view{d: &s.d})
}
