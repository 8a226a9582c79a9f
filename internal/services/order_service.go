package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"tokocart/internal/models"
	"tokocart/internal/repositories"
	"tokocart/pkg/rabbitmq"

	"github.com/google/uuid"
)

// CartLister reads an order's current cart set.
type CartLister interface {
	ListCarts(ctx context.Context, orderID string) ([]models.Cart, error)
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	carts     CartLister
	publisher EventPublisher
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, carts CartLister, publisher EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		carts:     carts,
		publisher: publisher,
	}
}

// ListOrders retrieves all orders with their carts.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		carts, err := s.carts.ListCarts(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load carts for order %s: %w", o.ID, err)
		}
		out = append(out, o.WithCarts(carts))
	}
	return out, nil
}

// GetOrder retrieves a single order with its current carts.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	carts, err := s.carts.ListCarts(ctx, id)
	if err != nil {
		return nil, err
	}
	withCarts := order.WithCarts(carts)
	return &withCarts, nil
}

// CreateOrder opens a new order with an empty cart set.
func (s *OrderService) CreateOrder(userID string) (*models.Order, error) {
	now := time.Now().UTC()
	newOrder := &models.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    models.OrderStatusOpen,
		Carts:     []models.Cart{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orderRepo.Create(newOrder); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	if s.publisher != nil {
		event := map[string]interface{}{
			"orderID": newOrder.ID,
			"userID":  newOrder.UserID,
			"status":  newOrder.Status,
		}
		if err := s.publisher.Publish(rabbitmq.RoutingOrderCreated, event); err != nil {
			log.Printf("Warning: Failed to publish order created event for order %s: %v", newOrder.ID, err)
		}
	}

	return newOrder, nil
}
