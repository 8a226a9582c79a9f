// Package app wires repositories, services and handlers into a Fiber app.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tokocart/internal/config"
	"tokocart/internal/handlers"
	"tokocart/internal/middleware"
	"tokocart/internal/models"
	"tokocart/internal/repositories"
	"tokocart/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// AutoMergeActor stamps carts merged by a queued or scheduled pass.
const AutoMergeActor = "auto-merge"

// App is the assembled service.
type App struct {
	Fiber    *fiber.App
	Auth     *services.AuthService
	Carts    *services.CartService
	Orders   *services.OrderService
	Products *services.ProductService
}

// OpenDatabase connects to the configured database and migrates the schema.
func OpenDatabase(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		dialector = postgres.Open(cfg.DatabaseDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := repositories.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// New builds the services and HTTP routes on db. publisher may be nil, in
// which case no events are sent.
func New(cfg config.Config, db *gorm.DB, publisher services.EventPublisher) *App {
	orderRepo := repositories.NewGORMOrderRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	cartService := services.NewCartService(cartRepo, orderRepo, productRepo, publisher,
		services.WithAutoMergeConfig(cfg.AutoMerge),
		services.WithPersistTimeout(cfg.PersistTimeout),
	)
	a := &App{
		Auth:     services.NewAuthService(userRepo, cfg.JWTSecret),
		Carts:    cartService,
		Orders:   services.NewOrderService(orderRepo, cartService, publisher),
		Products: services.NewProductService(productRepo),
	}

	app := fiber.New()
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		events := "disabled"
		if publisher != nil {
			events = "enabled"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"time":      time.Now().Format(time.RFC3339),
			"events":    events,
			"autoMerge": cfg.AutoMerge.EnableAutoMerge,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(a.Auth).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(a.Auth))
	handlers.NewProductHandler(a.Products).RegisterRoutes(protected)
	handlers.NewOrderHandler(a.Orders).RegisterRoutes(protected)
	handlers.NewCartHandler(a.Carts).RegisterRoutes(protected)

	a.Fiber = app
	return a
}

// AutoMergeMessage asks for an auto-merge pass over one order.
type AutoMergeMessage struct {
	OrderID string `json:"order_id"`
}

// AutoMergeConsumer handles order.automerge deliveries. A returned error
// nacks the delivery without requeue.
func AutoMergeConsumer(carts *services.CartService) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var req AutoMergeMessage
		if err := json.Unmarshal(msg.Body, &req); err != nil {
			return fmt.Errorf("invalid auto-merge message: %w", err)
		}
		if req.OrderID == "" {
			return fmt.Errorf("invalid auto-merge message: order_id is required")
		}

		summary, err := carts.AutoMerge(context.Background(), req.OrderID, AutoMergeActor)
		if err != nil {
			return fmt.Errorf("auto-merge order %s: %w", req.OrderID, err)
		}
		log.Printf("Auto-merge message (Tag: %d) for order %s merged %d pairs", msg.DeliveryTag, req.OrderID, len(summary.Merged))
		return nil
	}
}

// SeedProducts inserts a small catalog when none exists.
func SeedProducts(repo repositories.ProductRepository) {
	existing, err := repo.GetAll()
	if err == nil && len(existing) > 0 {
		return
	}
	products := []models.Product{
		{Name: "School Uniform Shirt", Description: "White short-sleeve shirt", Price: 12.50},
		{Name: "Uniform Trousers", Description: "Grey trousers", Price: 18.00},
		{Name: "Sports Kit", Description: "PE shirt and shorts", Price: 15.75},
	}
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
		} else {
			log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
		}
	}
}
