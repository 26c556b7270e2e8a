// Package catalog implements product and category management.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/obs"
	"github.com/mallkit/shop-admin-api/internal/store"
)

// ErrInvalidInput reports a malformed product or category payload.
var ErrInvalidInput = errors.New("invalid input")

// Service wraps the catalog collections with validation.
type Service struct {
	store store.Store
}

// NewService returns a Service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	CategoryID  string   `json:"category"`
	Stock       int64    `json:"stock"`
	Images      []string `json:"images"`
	IsActive    *bool    `json:"isActive"`
}

func (s *Service) validateProduct(ctx context.Context, st store.Stores, in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.Join(ErrInvalidInput, errors.New("name is required"))
	}
	if in.Price < 0 {
		return errors.Join(ErrInvalidInput, errors.New("price must be >= 0"))
	}
	if in.Stock < 0 {
		return errors.Join(ErrInvalidInput, errors.New("stock must be >= 0"))
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return errors.Join(ErrInvalidInput, errors.New("category is required"))
	}
	if _, err := st.GetCategory(ctx, in.CategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errors.Join(ErrInvalidInput, errors.New("category does not exist"))
		}
		return err
	}
	return nil
}

// CreateProduct validates and stores a new product. Products default to
// active unless the payload says otherwise.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (model.Product, error) {
	var created model.Product
	err := s.store.Tx(ctx, func(st store.Stores) error {
		if err := s.validateProduct(ctx, st, in); err != nil {
			return err
		}
		active := true
		if in.IsActive != nil {
			active = *in.IsActive
		}
		created = model.Product{
			ID:          uuid.NewString(),
			Name:        in.Name,
			Description: in.Description,
			Price:       in.Price,
			CategoryID:  in.CategoryID,
			Stock:       in.Stock,
			Images:      in.Images,
			IsActive:    active,
			CreatedAt:   time.Now().UTC(),
		}
		return st.CreateProduct(ctx, created)
	})
	if err != nil {
		return model.Product{}, err
	}
	obs.Logger.Info("product_created", "product_id", created.ID, "name", created.Name)
	return created, nil
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, id string) (model.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// ProductPage is one page of a filtered product listing.
type ProductPage struct {
	Products      []model.Product `json:"products"`
	CurrentPage   int             `json:"currentPage"`
	TotalPages    int             `json:"totalPages"`
	TotalProducts int             `json:"totalProducts"`
}

// ListProducts returns a filtered, paginated listing, newest first.
func (s *Service) ListProducts(ctx context.Context, f store.ProductFilter) (ProductPage, error) {
	f.Page, f.PageSize = store.Page(f.Page, f.PageSize)
	products, total, err := s.store.ListProducts(ctx, f)
	if err != nil {
		return ProductPage{}, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return ProductPage{
		Products:      products,
		CurrentPage:   f.Page,
		TotalPages:    (total + f.PageSize - 1) / f.PageSize,
		TotalProducts: total,
	}, nil
}

// UpdateProduct overwrites the writable fields of an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (model.Product, error) {
	var updated model.Product
	err := s.store.Tx(ctx, func(st store.Stores) error {
		existing, err := st.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		if err := s.validateProduct(ctx, st, in); err != nil {
			return err
		}
		existing.Name = in.Name
		existing.Description = in.Description
		existing.Price = in.Price
		existing.CategoryID = in.CategoryID
		existing.Stock = in.Stock
		existing.Images = in.Images
		if in.IsActive != nil {
			existing.IsActive = *in.IsActive
		}
		updated = existing
		return st.UpdateProduct(ctx, existing)
	})
	if err != nil {
		return model.Product{}, err
	}
	return updated, nil
}

// DeleteProduct removes a product from the catalog.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.store.DeleteProduct(ctx, id)
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// CreateCategory stores a new category; names must be unique.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (model.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Category{}, errors.Join(ErrInvalidInput, errors.New("name is required"))
	}
	c := model.Category{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return model.Category{}, err
	}
	obs.Logger.Info("category_created", "category_id", c.ID, "name", c.Name)
	return c, nil
}

// GetCategory returns one category.
func (s *Service) GetCategory(ctx context.Context, id string) (model.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// ListCategories returns all categories in creation order.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	out, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Category{}
	}
	return out, nil
}

// UpdateCategory renames or redescribes a category, keeping names unique.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (model.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Category{}, errors.Join(ErrInvalidInput, errors.New("name is required"))
	}
	var updated model.Category
	err := s.store.Tx(ctx, func(st store.Stores) error {
		existing, err := st.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		existing.Name = in.Name
		existing.Description = in.Description
		existing.Image = in.Image
		updated = existing
		return st.UpdateCategory(ctx, existing)
	})
	if err != nil {
		return model.Category{}, err
	}
	return updated, nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.store.DeleteCategory(ctx, id)
}
