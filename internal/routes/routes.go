package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campuslink/studentportal-backend/internal/handlers"
	"github.com/campuslink/studentportal-backend/internal/middleware"
	"github.com/campuslink/studentportal-backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, auth *handlers.AuthHandler, student *handlers.StudentHandler, tokens *services.TokenService) {
	api := app.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/verify-register", auth.RegisterCheck)
	authGroup.Post("/verify-otp", auth.VerifyOTP)
	authGroup.Post("/set-password", auth.SetPassword)
	authGroup.Post("/login", auth.Login)
	authGroup.Post("/forgot-password", auth.ForgotPassword)
	authGroup.Post("/send-otp", auth.SendOTP)
	authGroup.Post("/refresh", auth.Refresh)
	authGroup.Post("/logout", auth.Logout)

	// Student routes (require a valid access token)
	students := api.Group("/students", middleware.RequireAuth(tokens))
	students.Get("/me", student.GetProfile)
	students.Put("/me", student.UpdateProfile)
}
