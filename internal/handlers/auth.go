package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/campuslink/studentportal-backend/internal/services"
)

// AuthHandler handles registration, OTP, password and token requests.
type AuthHandler struct {
	auth     *services.AuthService
	tokens   *services.TokenService
	audit    *services.AuditSink
	validate *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, tokens *services.TokenService, audit *services.AuditSink) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		tokens:   tokens,
		audit:    audit,
		validate: validator.New(),
	}
}

type registerCheckRequest struct {
	RegisterNumber string `json:"register_number" validate:"required"`
}

// RegisterCheck handles the first step of onboarding/login: submit a register
// number, get either an OTP (no password yet) or a password prompt.
func (h *AuthHandler) RegisterCheck(c *fiber.Ctx) error {
	var req registerCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "register_number is required",
		})
	}

	result, err := h.auth.CheckRegisterNumber(req.RegisterNumber)
	if err != nil {
		return respondError(c, h.audit, err)
	}

	if result.PasswordSet {
		return c.JSON(fiber.Map{
			"message":      "Password required",
			"password_set": true,
		})
	}

	return c.JSON(fiber.Map{
		"message":      "OTP sent successfully",
		"phone_number": result.Phone,
	})
}

type otpVerifyRequest struct {
	RegisterNumber string `json:"register_number" validate:"required"`
	OTP            string `json:"otp" validate:"required,len=6,numeric"`
}

// VerifyOTP validates a submitted code.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req otpVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "register_number and a 6-digit otp are required",
		})
	}

	if err := h.auth.VerifyOTP(req.RegisterNumber, req.OTP); err != nil {
		return respondError(c, h.audit, err)
	}

	return c.JSON(fiber.Map{
		"message": "OTP verified",
	})
}

type setPasswordRequest struct {
	RegisterNumber string `json:"register_number" validate:"required"`
	Password       string `json:"password" validate:"required"`
}

// SetPassword stores the student's first password and returns a token pair.
// The client is expected to have called VerifyOTP beforehand; no ticket is
// checked here.
func (h *AuthHandler) SetPassword(c *fiber.Ctx) error {
	var req setPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "register_number and password are required",
		})
	}

	pair, student, err := h.auth.SetPassword(req.RegisterNumber, req.Password)
	if err != nil {
		return respondError(c, h.audit, err)
	}

	return c.JSON(fiber.Map{
		"access":  pair.AccessToken,
		"refresh": pair.RefreshToken,
		"name":    student.Name,
	})
}

type loginRequest struct {
	RegisterNumber string `json:"register_number" validate:"required"`
	Password       string `json:"password" validate:"required"`
}

// Login authenticates with register number and password.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "register_number and password are required",
		})
	}

	pair, student, err := h.auth.Login(req.RegisterNumber, req.Password)
	if errors.Is(err, services.ErrInvalid) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Incorrect password",
		})
	}
	if err != nil {
		return respondError(c, h.audit, err)
	}

	return c.JSON(fiber.Map{
		"access":  pair.AccessToken,
		"refresh": pair.RefreshToken,
		"name":    student.Name,
	})
}

type forgotPasswordRequest struct {
	RegisterNumber string `json:"register_number" validate:"required"`
	OTP            string `json:"otp"`
	NewPassword    string `json:"new_password"`
}

// ForgotPassword handles both steps of the reset flow on one route: without
// otp/new_password it sends an OTP; with both it resets the password and
// clears the OTP ledger.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "register_number is required",
		})
	}

	result, err := h.auth.ForgotPassword(req.RegisterNumber, req.OTP, req.NewPassword)
	if err != nil {
		return respondError(c, h.audit, err)
	}

	if result.OTPSent {
		return c.JSON(fiber.Map{
			"message":      "OTP sent successfully",
			"phone_number": result.Phone,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Password reset successful",
		"access":  result.Tokens.AccessToken,
		"refresh": result.Tokens.RefreshToken,
		"name":    result.Student.Name,
	})
}

type sendOTPRequest struct {
	RegisterNumber string `json:"register_number" validate:"required"`
}

// SendOTP issues a standalone OTP for an existing student.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "register_number is required",
		})
	}

	phone, err := h.auth.SendOTP(req.RegisterNumber)
	if err != nil {
		return respondError(c, h.audit, err)
	}

	return c.JSON(fiber.Map{
		"message":      "OTP sent successfully",
		"phone_number": phone,
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// Refresh rotates a refresh token for a new pair.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "refresh token is required",
		})
	}

	pair, err := h.tokens.Refresh(req.Refresh)
	if err != nil {
		return respondError(c, h.audit, err)
	}

	return c.JSON(fiber.Map{
		"access":  pair.AccessToken,
		"refresh": pair.RefreshToken,
	})
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "refresh token is required",
		})
	}

	if err := h.tokens.Revoke(req.Refresh); err != nil {
		return respondError(c, h.audit, err)
	}

	return c.JSON(fiber.Map{
		"message": "Logout successful",
	})
}
