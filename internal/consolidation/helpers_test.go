package consolidation_test

import (
	"fmt"
	"time"

	"tokocart/internal/models"
)

var (
	created = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later   = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
)

func item(productID string, qty int, price float64) models.CartItem {
	return models.CartItem{
		ProductID:   productID,
		ProductName: "Product " + productID,
		Price:       price,
		Quantity:    qty,
		AddedAt:     created,
		AddedBy:     "alice",
	}
}

func cart(id, name string, items ...models.CartItem) models.Cart {
	c := models.Cart{
		ID:             id,
		OrderID:        "order-1",
		Name:           name,
		Items:          items,
		CreatedAt:      created,
		CreatedBy:      "alice",
		LastModifiedAt: created,
		LastModifiedBy: "alice",
	}
	c.RecalculateTotal()
	return c
}

// products builds one unit-priced item per product id in [from, to].
func products(from, to int) []models.CartItem {
	var items []models.CartItem
	for i := from; i <= to; i++ {
		items = append(items, item(fmt.Sprintf("p%d", i), 1, 1.5))
	}
	return items
}

func sumLines(c models.Cart) float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

func ids(carts []models.Cart) []string {
	out := make([]string, 0, len(carts))
	for _, c := range carts {
		out = append(out, c.ID)
	}
	return out
}
