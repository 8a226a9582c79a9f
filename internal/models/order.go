package models

import "time"

// Order statuses.
const (
	OrderStatusOpen   = "open"
	OrderStatusClosed = "closed"
)

// Order groups the carts built up during order intake.
type Order struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string    `json:"user_id" gorm:"index;type:varchar(36)"`
	Status      string    `json:"status" gorm:"type:varchar(20)"`
	Carts       []Cart    `json:"carts" gorm:"-"`
	TotalAmount float64   `json:"total_amount" gorm:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WithCarts attaches a cart set and recomputes the order total from it.
func (o Order) WithCarts(carts []Cart) Order {
	o.Carts = carts
	o.TotalAmount = 0
	for _, c := range carts {
		o.TotalAmount += c.Total
	}
	return o
}
