// Package order implements the order processor: creation with atomic
// stock reservation, listing, detail lookup, status transitions and
// cancellation with stock reversal.
package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mallkit/shop-admin-api/internal/auth"
	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/obs"
	"github.com/mallkit/shop-admin-api/internal/store"
)

// transitions is the closed set of admin-driven status changes. Cancelled
// is deliberately absent as a target: only Cancel may set it, because it
// is the only path that reverses stock.
var transitions = map[model.OrderStatus]model.OrderStatus{
	model.OrderStatusPending: model.OrderStatusPaid,
	model.OrderStatusPaid:    model.OrderStatusShipped,
	model.OrderStatusShipped: model.OrderStatusCompleted,
}

// Service coordinates the catalog and order collections. All multi-step
// mutations run inside a single store transaction.
type Service struct {
	store store.Store
}

// NewService returns a Service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// CreateItem is one requested line of a new order.
type CreateItem struct {
	ProductID string `json:"product"`
	Quantity  int64  `json:"quantity"`
}

// CreateRequest is the payload for placing an order.
type CreateRequest struct {
	Items           []CreateItem `json:"items"`
	ShippingAddress string       `json:"shippingAddress"`
	PaymentMethod   string       `json:"paymentMethod"`
}

// Create places an order for the caller. Every product is validated and
// every stock decrement applied inside one transaction: if any item is
// missing, inactive or short on stock, no stock changes at all. Prices
// are snapshotted into the line items and the total is computed from the
// snapshots.
func (s *Service) Create(ctx context.Context, caller auth.Identity, req CreateRequest) (model.Order, error) {
	if len(req.Items) == 0 {
		return model.Order{}, errors.Join(ErrInvalidInput, errors.New("items must not be empty"))
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return model.Order{}, errors.Join(ErrInvalidInput, errors.New("shippingAddress is required"))
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return model.Order{}, errors.Join(ErrInvalidInput, errors.New("paymentMethod is required"))
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.Quantity < 1 {
			return model.Order{}, errors.Join(ErrInvalidInput, itemErr(i, it.ProductID, errors.New("product and quantity >= 1 required")))
		}
	}

	now := time.Now().UTC()
	created := model.Order{
		ID:              uuid.NewString(),
		UserID:          caller.UserID,
		Status:          model.OrderStatusPending,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.store.Tx(ctx, func(st store.Stores) error {
		var total int64
		items := make([]model.OrderItem, 0, len(req.Items))
		// validate every line first; nothing is decremented until all pass
		for i, it := range req.Items {
			p, err := st.GetProduct(ctx, it.ProductID)
			if errors.Is(err, store.ErrNotFound) {
				return itemErr(i, it.ProductID, ErrProductNotFound)
			}
			if err != nil {
				return err
			}
			if !p.IsActive {
				return itemErr(i, it.ProductID, ErrProductNotFound)
			}
			if p.Stock < it.Quantity {
				return itemErr(i, it.ProductID, ErrInsufficientStock)
			}
			total += p.Price * it.Quantity
			items = append(items, model.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: p.Price})
		}
		for i, it := range items {
			if err := st.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				switch {
				case errors.Is(err, store.ErrInsufficientStock):
					return itemErr(i, it.ProductID, ErrInsufficientStock)
				case errors.Is(err, store.ErrNotFound):
					return itemErr(i, it.ProductID, ErrProductNotFound)
				}
				return err
			}
		}
		created.Items = items
		created.TotalAmount = total
		return st.CreateOrder(ctx, created)
	})
	if err != nil {
		return model.Order{}, err
	}
	obs.Logger.Info("order_created",
		"order_id", created.ID,
		"user_id", created.UserID,
		"items", len(created.Items),
		"total_amount", created.TotalAmount,
	)
	return created, nil
}

// Page is one page of a user's orders.
type Page struct {
	Orders      []model.Order `json:"orders"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
	TotalOrders int           `json:"totalOrders"`
}

// ListForUser returns the user's orders newest-first, optionally filtered
// by status.
func (s *Service) ListForUser(ctx context.Context, userID string, status model.OrderStatus, page, pageSize int) (Page, error) {
	if status != "" && !status.Valid() {
		return Page{}, errors.Join(ErrInvalidInput, errors.New("unknown status"))
	}
	page, pageSize = store.Page(page, pageSize)
	orders, total, err := s.store.ListOrdersByUser(ctx, userID, store.OrderFilter{Status: status, Page: page, PageSize: pageSize})
	if err != nil {
		return Page{}, err
	}
	totalPages := (total + pageSize - 1) / pageSize
	if orders == nil {
		orders = []model.Order{}
	}
	return Page{Orders: orders, CurrentPage: page, TotalPages: totalPages, TotalOrders: total}, nil
}

// ProductSummary is the catalog view embedded in an order detail.
type ProductSummary struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Images []string `json:"images"`
	Price  int64    `json:"price"`
}

// OwnerSummary identifies the purchasing user in an order detail.
type OwnerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// DetailItem is a line item joined with its product summary.
type DetailItem struct {
	Product  ProductSummary `json:"product"`
	Quantity int64          `json:"quantity"`
	Price    int64          `json:"price"`
}

// Detail is an order with product and owner summaries embedded.
type Detail struct {
	ID              string            `json:"id"`
	User            OwnerSummary      `json:"user"`
	Items           []DetailItem      `json:"items"`
	TotalAmount     int64             `json:"totalAmount"`
	Status          model.OrderStatus `json:"status"`
	ShippingAddress string            `json:"shippingAddress"`
	PaymentMethod   string            `json:"paymentMethod"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// GetByID returns the order with embedded summaries. Only the owner and
// administrators may see it.
func (s *Service) GetByID(ctx context.Context, caller auth.Identity, orderID string) (Detail, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return Detail{}, err
	}
	if !auth.CanViewOrder(caller, o) {
		return Detail{}, auth.ErrForbidden
	}

	d := Detail{
		ID:              o.ID,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if u, err := s.store.GetUser(ctx, o.UserID); err == nil {
		d.User = OwnerSummary{ID: u.ID, Username: u.Username, Email: u.Email}
	} else {
		d.User = OwnerSummary{ID: o.UserID}
	}
	d.Items = make([]DetailItem, 0, len(o.Items))
	for _, it := range o.Items {
		di := DetailItem{Quantity: it.Quantity, Price: it.Price}
		if p, err := s.store.GetProduct(ctx, it.ProductID); err == nil {
			di.Product = ProductSummary{ID: p.ID, Name: p.Name, Images: p.Images, Price: p.Price}
		} else {
			// product deleted since purchase; keep the reference
			di.Product = ProductSummary{ID: it.ProductID}
		}
		d.Items = append(d.Items, di)
	}
	return d, nil
}

// UpdateStatus applies an administrator-driven transition. Stock is never
// touched here.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.Identity, orderID string, next model.OrderStatus) (model.Order, error) {
	if !caller.IsAdmin() {
		return model.Order{}, auth.ErrForbidden
	}
	if !next.Valid() {
		return model.Order{}, errors.Join(ErrInvalidInput, errors.New("unknown status"))
	}
	var updated model.Order
	err := s.store.Tx(ctx, func(st store.Stores) error {
		o, err := st.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if transitions[o.Status] != next {
			return ErrInvalidTransition
		}
		o.Status = next
		o.UpdatedAt = time.Now().UTC()
		if err := st.UpdateOrder(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	obs.Logger.Info("order_status_updated", "order_id", updated.ID, "status", string(updated.Status))
	return updated, nil
}

// Cancel voids a pending order owned by the caller and puts every line
// item's quantity back into stock. Restock and the status change are one
// transaction: a line item that cannot be reversed aborts the whole
// cancellation.
func (s *Service) Cancel(ctx context.Context, caller auth.Identity, orderID string) (model.Order, error) {
	var cancelled model.Order
	err := s.store.Tx(ctx, func(st store.Stores) error {
		o, err := st.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !auth.CanCancelOrder(caller, o) {
			return auth.ErrForbidden
		}
		if o.Status != model.OrderStatusPending {
			return ErrInvalidTransition
		}
		for i, it := range o.Items {
			if err := st.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return itemErr(i, it.ProductID, ErrRestockFailed)
				}
				return err
			}
		}
		o.Status = model.OrderStatusCancelled
		o.UpdatedAt = time.Now().UTC()
		if err := st.UpdateOrder(ctx, o); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	obs.Logger.Info("order_cancelled", "order_id", cancelled.ID, "user_id", cancelled.UserID)
	return cancelled, nil
}
