package handlers

import (
	"errors"
	"fmt"
	"log"

	"tokocart/internal/consolidation"
	"tokocart/internal/repositories"
	"tokocart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

func invalidBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// validationFailed renders validator errors per field, or the plain error
// when it did not come from the validator.
func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return invalidBody(c, err)
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, consolidation.ErrEmptyName),
		errors.Is(err, consolidation.ErrSelfMerge),
		errors.Is(err, services.ErrInvalidQuantity):
		return fiber.StatusBadRequest
	case errors.Is(err, consolidation.ErrCartNotFound),
		errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, consolidation.ErrNotConfirmed),
		errors.Is(err, consolidation.ErrCancelled),
		errors.Is(err, services.ErrUserExists):
		return fiber.StatusConflict
	case errors.Is(err, consolidation.ErrPersistence):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// serviceError maps a service error to a status and a message an operator
// can act on.
func serviceError(c *fiber.Ctx, err error, action string) error {
	status := statusFor(err)
	log.Printf("Error %s: %v", action, err)
	message := consolidation.Describe(err)
	if status == fiber.StatusInternalServerError {
		message = "Could not complete request: " + action
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
