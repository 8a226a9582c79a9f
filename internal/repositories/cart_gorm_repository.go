package repositories

import (
	"context"
	"fmt"

	"tokocart/internal/models"

	"gorm.io/gorm"
)

// GORMCartRepository stores one row per cart with items in a JSON column.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByOrder loads the order's carts ordered by position.
func (r *GORMCartRepository) GetByOrder(ctx context.Context, orderID string) ([]models.Cart, error) {
	var carts []models.Cart
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("position").Find(&carts).Error; err != nil {
		return nil, fmt.Errorf("failed to get carts for order %s: %w", orderID, err)
	}
	return carts, nil
}

// ReplaceAll deletes every cart of the order and inserts carts in one
// transaction, so readers see either the old set or the new one.
func (r *GORMCartRepository) ReplaceAll(ctx context.Context, orderID string, carts []models.Cart) error {
	rows := models.CloneCarts(carts)
	for i := range rows {
		rows[i].OrderID = orderID
		rows[i].Position = i
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&models.Cart{}).Error; err != nil {
			return fmt.Errorf("failed to clear carts: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert carts: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace carts for order %s: %w", orderID, err)
	}
	return nil
}
