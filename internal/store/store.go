// Package store defines the storage interfaces and error taxonomy shared
// by the in-memory and Postgres backends.
package store

import (
	"context"
	"errors"

	"github.com/mallkit/shop-admin-api/internal/model"
)

var (
	// ErrNotFound reports that the referenced document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a uniqueness violation (duplicate name, username, ...).
	ErrConflict = errors.New("already exists")
	// ErrInsufficientStock reports that a conditional stock decrement would
	// have driven stock negative. The product is left unchanged.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductFilter narrows and paginates product listings. Zero values mean
// "no constraint"; Page is 1-based.
type ProductFilter struct {
	CategoryID string
	MinPrice   *int64
	MaxPrice   *int64
	Search     string
	Page       int
	PageSize   int
}

// OrderFilter narrows and paginates per-user order listings.
type OrderFilter struct {
	Status   model.OrderStatus
	Page     int
	PageSize int
}

// CatalogStore persists products and categories. DecrementStock is an
// atomic conditional decrement: it must fail with ErrInsufficientStock,
// without mutating anything, when the remaining stock is smaller than qty,
// regardless of concurrent callers.
type CatalogStore interface {
	CreateProduct(ctx context.Context, p model.Product) error
	GetProduct(ctx context.Context, id string) (model.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, p model.Product) error
	DeleteProduct(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, qty int64) error
	IncrementStock(ctx context.Context, id string, qty int64) error

	CreateCategory(ctx context.Context, c model.Category) error
	GetCategory(ctx context.Context, id string) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	UpdateCategory(ctx context.Context, c model.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// OrderStore persists orders, newest-first on listing.
type OrderStore interface {
	CreateOrder(ctx context.Context, o model.Order) error
	GetOrder(ctx context.Context, id string) (model.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, f OrderFilter) ([]model.Order, int, error)
	UpdateOrder(ctx context.Context, o model.Order) error
}

// UserStore persists user accounts. Usernames and WeChat open IDs are unique.
type UserStore interface {
	CreateUser(ctx context.Context, u model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	FindUserByUsername(ctx context.Context, username string) (model.User, error)
	FindUserByWeChatOpenID(ctx context.Context, openID string) (model.User, error)
	ListUsers(ctx context.Context, keyword string, page, pageSize int) ([]model.User, int, error)
	UpdateUser(ctx context.Context, u model.User) error
	DeleteUser(ctx context.Context, id string) error
	CountUsersByRole(ctx context.Context, role string) (int, error)
}

// RoleStore persists admin-managed roles. Role names are unique.
type RoleStore interface {
	CreateRole(ctx context.Context, r model.RoleDef) error
	GetRole(ctx context.Context, id string) (model.RoleDef, error)
	FindRoleByName(ctx context.Context, name string) (model.RoleDef, error)
	ListRoles(ctx context.Context, keyword string, page, pageSize int) ([]model.RoleDef, int, error)
	UpdateRole(ctx context.Context, r model.RoleDef) error
	DeleteRole(ctx context.Context, id string) error
}

// Stores bundles every collection a transaction can touch.
type Stores interface {
	CatalogStore
	OrderStore
	UserStore
	RoleStore
}

// Store is a complete backend. Tx runs fn against transactional views of
// the collections: either every mutation made inside fn is visible
// afterwards, or none is.
type Store interface {
	Stores
	Tx(ctx context.Context, fn func(Stores) error) error
	Close()
}

// Page clamps pagination inputs to sane values.
func Page(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}
