package handlers

import (
	"tokocart/internal/consolidation"
	"tokocart/internal/middleware"
	"tokocart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Conflict choices a client can send with a create or rename. They stand in
// for the interactive merge/keep separate/cancel prompt.
const (
	ConflictMerge    = "merge"
	ConflictSeparate = "separate"
	ConflictCancel   = "cancel"
)

// CartNameRequest is the body for creating or renaming a cart.
type CartNameRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	OnConflict string `json:"on_conflict" validate:"omitempty,oneof=merge separate cancel"`
}

// AddItemRequest is the body for adding a product line to a cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// MergeRequest is the body for a user-initiated merge.
type MergeRequest struct {
	SourceID  string `json:"source_id" validate:"required"`
	TargetID  string `json:"target_id" validate:"required"`
	Trigger   string `json:"trigger" validate:"omitempty,oneof=manual drag_drop context_menu"`
	Confirmed bool   `json:"confirmed"`
}

// CartHandler handles HTTP requests for the carts of an order.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes under /orders/:id/carts.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/orders/:id/carts")
	cartRoutes.Get("/", h.HandleListCarts)
	cartRoutes.Post("/", h.HandleCreateCart)
	cartRoutes.Get("/suggestions", h.HandleSuggestions)
	cartRoutes.Post("/merge", h.HandleMerge)
	cartRoutes.Post("/auto-merge", h.HandleAutoMerge)
	cartRoutes.Patch("/:cartId", h.HandleRenameCart)
	cartRoutes.Delete("/:cartId", h.HandleDeleteCart)
	cartRoutes.Post("/:cartId/items", h.HandleAddItem)
}

func conflictConfirmer(choice string) consolidation.Confirmer {
	switch choice {
	case ConflictMerge:
		return consolidation.Always(consolidation.DecisionYes)
	case ConflictCancel:
		return consolidation.Always(consolidation.DecisionCancel)
	default:
		return consolidation.Always(consolidation.DecisionNo)
	}
}

// HandleListCarts returns the stored cart set of an order.
func (h *CartHandler) HandleListCarts(c *fiber.Ctx) error {
	carts, err := h.service.ListCarts(c.UserContext(), c.Params("id"))
	if err != nil {
		return serviceError(c, err, "listing carts")
	}
	return c.JSON(carts)
}

// HandleCreateCart creates a cart, or lands on an existing one when the
// name collides and the client chose to merge.
func (h *CartHandler) HandleCreateCart(c *fiber.Ctx) error {
	var req CartNameRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	res, err := h.service.CreateCart(c.UserContext(), c.Params("id"), req.Name, middleware.DisplayName(c), conflictConfirmer(req.OnConflict))
	if err != nil {
		return serviceError(c, err, "creating cart")
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// HandleRenameCart renames a cart. A collision resolved with merge folds the
// cart into the one that already holds the name.
func (h *CartHandler) HandleRenameCart(c *fiber.Ctx) error {
	var req CartNameRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	res, err := h.service.RenameCart(c.UserContext(), c.Params("id"), c.Params("cartId"), req.Name, middleware.DisplayName(c), conflictConfirmer(req.OnConflict))
	if err != nil {
		return serviceError(c, err, "renaming cart")
	}
	return c.JSON(res)
}

// HandleDeleteCart deletes a cart. The client confirms with ?confirmed=true.
func (h *CartHandler) HandleDeleteCart(c *fiber.Ctx) error {
	confirm := consolidation.FromBool(c.QueryBool("confirmed"))
	res, err := h.service.DeleteCart(c.UserContext(), c.Params("id"), c.Params("cartId"), middleware.DisplayName(c), confirm)
	if err != nil {
		return serviceError(c, err, "deleting cart")
	}
	return c.JSON(res)
}

// HandleAddItem appends a product line to a cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	res, err := h.service.AddItem(c.UserContext(), c.Params("id"), c.Params("cartId"), req.ProductID, req.Quantity, middleware.DisplayName(c))
	if err != nil {
		return serviceError(c, err, "adding item")
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// HandleMerge merges source into target. Drag-and-drop, context-menu and
// merge-button clients all post here with their trigger.
func (h *CartHandler) HandleMerge(c *fiber.Ctx) error {
	var req MergeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	res, err := h.service.MergeCartsDirect(c.UserContext(), services.MergeRequest{
		OrderID:  c.Params("id"),
		SourceID: req.SourceID,
		TargetID: req.TargetID,
		Actor:    middleware.DisplayName(c),
		Trigger:  services.MergeTrigger(req.Trigger),
	}, consolidation.FromBool(req.Confirmed))
	if err != nil {
		return serviceError(c, err, "merging carts")
	}
	return c.JSON(res)
}

// HandleSuggestions returns ranked merge candidates.
func (h *CartHandler) HandleSuggestions(c *fiber.Ctx) error {
	suggestions, err := h.service.SuggestMerges(c.UserContext(), c.Params("id"))
	if err != nil {
		return serviceError(c, err, "suggesting merges")
	}
	return c.JSON(suggestions)
}

// HandleAutoMerge runs one auto-merge pass over the order.
func (h *CartHandler) HandleAutoMerge(c *fiber.Ctx) error {
	summary, err := h.service.AutoMerge(c.UserContext(), c.Params("id"), middleware.DisplayName(c))
	if err != nil {
		return serviceError(c, err, "auto-merging carts")
	}
	return c.JSON(summary)
}
