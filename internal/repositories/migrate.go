package repositories

import (
	"fmt"

	"tokocart/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the service uses.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Order{}, &models.Cart{}, &models.Product{}, &models.User{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}
