package repositories

import (
	"context"
	"sync"

	"tokocart/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts map[string][]models.Cart
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string][]models.Cart),
	}
}

// GetByOrder returns a copy of the order's carts.
func (r *MockCartRepository) GetByOrder(ctx context.Context, orderID string) ([]models.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return models.CloneCarts(r.carts[orderID]), nil
}

// ReplaceAll swaps the order's cart set under the write lock.
func (r *MockCartRepository) ReplaceAll(ctx context.Context, orderID string, carts []models.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := models.CloneCarts(carts)
	for i := range rows {
		rows[i].OrderID = orderID
		rows[i].Position = i
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[orderID] = rows
	return nil
}
