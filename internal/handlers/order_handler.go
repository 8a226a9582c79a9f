package handlers

import (
	"tokocart/internal/middleware"
	"tokocart/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// HandleGetOrders retrieves all orders with their carts.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext())
	if err != nil {
		return serviceError(c, err, "listing orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order and its carts.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return serviceError(c, err, "getting order "+c.Params("id"))
	}
	return c.JSON(order)
}

// HandleCreateOrder opens an empty order for the authenticated user.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	order, err := h.service.CreateOrder(middleware.UserID(c))
	if err != nil {
		return serviceError(c, err, "creating order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}
