package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campuslink/studentportal-backend/internal/services"
)

// Locals keys set by RequireAuth.
const (
	LocalRegisterNumber = "register_number"
	LocalStudentName    = "student_name"
)

// RequireAuth validates the Bearer access token and stores the student's
// identity in the request locals.
func RequireAuth(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid authorization header",
			})
		}

		claims, err := tokens.ParseAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(LocalRegisterNumber, claims.RegisterNumber)
		c.Locals(LocalStudentName, claims.Name)
		return c.Next()
	}
}
