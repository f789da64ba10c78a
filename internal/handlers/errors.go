package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/campuslink/studentportal-backend/internal/services"
)

// respondError maps the shared service error taxonomy to HTTP responses.
// Handlers catch endpoint-specific sentinels (e.g. ErrInvalid with their own
// wording) before falling through to this. Anything unrecognized is recorded
// to the audit sink and answered with a generic 500.
func respondError(c *fiber.Ctx, audit *services.AuditSink, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Register number not found",
		})
	case errors.Is(err, services.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Please wait before requesting a new OTP.",
		})
	case errors.Is(err, services.ErrExpired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "OTP expired",
		})
	case errors.Is(err, services.ErrInvalid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid OTP",
		})
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, services.ErrDeliveryFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to send OTP. Please try again.",
		})
	case errors.Is(err, services.ErrTokenRevoked):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Token has been revoked",
		})
	case errors.Is(err, services.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	default:
		audit.Record(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal Server Error",
		})
	}
}
