package models

import "time"

// CartItem is a single appended purchase line inside a cart.
type CartItem struct {
	ProductID   string     `json:"product_id" validate:"required"`
	ProductName string     `json:"product_name"`
	Price       float64    `json:"price" validate:"gte=0"`
	Quantity    int        `json:"quantity" validate:"gt=0"`
	AddedAt     time.Time  `json:"added_at"`
	AddedBy     string     `json:"added_by" validate:"required"`
	EditedBy    string     `json:"edited_by,omitempty"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
}

// LineTotal returns price * quantity for the item.
func (i CartItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Cart is a named, ordered collection of items attached to an order.
// Items are persisted as a JSON column so every audit field round-trips.
type Cart struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID        string     `json:"order_id" gorm:"index;type:varchar(36)"`
	Position       int        `json:"-"`
	Name           string     `json:"name" gorm:"type:varchar(255)" validate:"required"`
	Items          []CartItem `json:"items" gorm:"serializer:json"`
	Total          float64    `json:"total"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime:false"`
	CreatedBy      string     `json:"created_by"`
	LastModifiedAt time.Time  `json:"last_modified_at"`
	LastModifiedBy string     `json:"last_modified_by"`
	NeedsReprint   bool       `json:"needs_reprint"`
}

// RecalculateTotal sets Total to the sum of the item line totals.
func (c *Cart) RecalculateTotal() {
	var total float64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	c.Total = total
}

// Touch stamps the cart as structurally modified. NeedsReprint is only
// ever raised here; clearing it belongs to the print workflow.
func (c *Cart) Touch(by string, at time.Time) {
	c.LastModifiedAt = at
	c.LastModifiedBy = by
	c.NeedsReprint = true
}

// Clone returns a deep copy of the cart, including its items.
func (c Cart) Clone() Cart {
	out := c
	if c.Items != nil {
		out.Items = make([]CartItem, len(c.Items))
		for i, item := range c.Items {
			if item.EditedAt != nil {
				at := *item.EditedAt
				item.EditedAt = &at
			}
			out.Items[i] = item
		}
	}
	return out
}

// CloneCarts deep-copies a cart set.
func CloneCarts(carts []Cart) []Cart {
	if carts == nil {
		return nil
	}
	out := make([]Cart, len(carts))
	for i, c := range carts {
		out[i] = c.Clone()
	}
	return out
}
