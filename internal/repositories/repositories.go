package repositories

import (
	"context"
	"errors"

	"tokocart/internal/models"
)

// ErrNotFound is wrapped by every repository lookup that finds nothing.
var ErrNotFound = errors.New("record not found")

// CartRepository is the persistence collaborator for an order's cart set.
type CartRepository interface {
	// GetByOrder returns a coherent snapshot of the order's carts in
	// enumeration order.
	GetByOrder(ctx context.Context, orderID string) ([]models.Cart, error)
	// ReplaceAll atomically replaces the order's entire cart collection.
	ReplaceAll(ctx context.Context, orderID string, carts []models.Cart) error
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
}
