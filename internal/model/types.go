// Package model defines domain types used by the service.
package model

import "time"

// Role names recognized by the authorization layer.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Product is a sellable catalog entry. Price is in minor currency units.
// Stock never goes negative; the store enforces this on decrement.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	CategoryID  string    `json:"category"`
	Stock       int64     `json:"stock"`
	Images      []string  `json:"images"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Category groups products. Names are unique.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OrderItem is one line of an order. Price is the unit price captured
// at order creation time, not the product's live price.
type OrderItem struct {
	ProductID string `json:"product"`
	Quantity  int64  `json:"quantity"`
	Price     int64  `json:"price"`
}

// Order is a purchase owned by a single user. TotalAmount always equals
// the sum over items of Quantity*Price.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user"`
	Items           []OrderItem `json:"items"`
	TotalAmount     int64       `json:"totalAmount"`
	Status          OrderStatus `json:"status"`
	ShippingAddress string      `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// User is an account. PasswordHash is a bcrypt hash and never serialized.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	Nickname     string    `json:"nickname,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	Role         string    `json:"role"`
	WeChatOpenID string    `json:"-"`
	CreatedAt    time.Time `json:"createTime"`
}

// RoleDef is an admin-managed role with a permission list. System roles
// cannot be modified or deleted.
type RoleDef struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	IsSystem    bool      `json:"isSystem"`
	CreatedAt   time.Time `json:"createTime"`
}
