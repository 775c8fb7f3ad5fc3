package utils

import (
	"errors"

	domain "schoolops/internal/errors"

	"github.com/gofiber/fiber/v2"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, fiber.Map{
		"success": true,
		"data":    data,
	})
}

// BadRequest sends a JSON error response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{"success": false, "error": message})
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusUnauthorized, fiber.Map{"success": false, "error": message})
}

// Forbidden sends a JSON error response with status 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusForbidden, fiber.Map{"success": false, "error": message})
}

// NotFound sends a JSON error response with status 404.
func NotFound(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusNotFound, fiber.Map{"success": false, "error": message})
}

// InternalError sends a JSON error response with status 500.
func InternalError(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusInternalServerError, fiber.Map{"success": false, "error": message})
}

// DomainError maps a typed domain error to its HTTP status and sends
// the machine-readable kind alongside the message.
func DomainError(c *fiber.Ctx, err error) error {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return InternalError(c, "internal error")
	}

	status := fiber.StatusInternalServerError
	switch de {
	case domain.ErrInvalidInput:
		status = fiber.StatusBadRequest
	case domain.ErrNotFound:
		status = fiber.StatusNotFound
	case domain.ErrInvalidTransition, domain.ErrInsufficientFunds, domain.ErrExceedsFeeDue:
		status = fiber.StatusUnprocessableEntity
	case domain.ErrDuplicateEvent:
		status = fiber.StatusConflict
	case domain.ErrStorageUnavailable:
		status = fiber.StatusServiceUnavailable
	}

	return Respond(c, status, fiber.Map{
		"success": false,
		"kind":    de.Code,
		"error":   err.Error(),
	})
}
