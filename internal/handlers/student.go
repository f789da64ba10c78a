package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/campuslink/studentportal-backend/internal/middleware"
	"github.com/campuslink/studentportal-backend/internal/services"
)

// StudentHandler serves the authenticated profile endpoints.
type StudentHandler struct {
	profile  *services.ProfileService
	audit    *services.AuditSink
	validate *validator.Validate
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(profile *services.ProfileService, audit *services.AuditSink) *StudentHandler {
	return &StudentHandler{
		profile:  profile,
		audit:    audit,
		validate: validator.New(),
	}
}

// GetProfile returns the authenticated student's record.
func (h *StudentHandler) GetProfile(c *fiber.Ctx) error {
	regNo, _ := c.Locals(middleware.LocalRegisterNumber).(string)

	student, err := h.profile.Get(regNo)
	if err != nil {
		return respondError(c, h.audit, err)
	}

	return c.JSON(fiber.Map{
		"student": student,
	})
}

type updateProfileRequest struct {
	OTP          string `json:"otp" validate:"omitempty,len=6,numeric"`
	DOB          string `json:"dob"`
	Gender       string `json:"gender"`
	FatherName   string `json:"father_name"`
	MotherName   string `json:"mother_name"`
	Email        string `json:"email" validate:"omitempty,email"`
	AadharNumber string `json:"aadhar_number" validate:"omitempty,len=12,numeric"`
}

// UpdateProfile applies OTP-gated changes to the mutable profile fields.
// Without an otp in the body it sends one and applies nothing.
func (h *StudentHandler) UpdateProfile(c *fiber.Ctx) error {
	regNo, _ := c.Locals(middleware.LocalRegisterNumber).(string)

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid field values",
		})
	}

	result, err := h.profile.Update(regNo, req.OTP, services.ProfileUpdate{
		DOB:          req.DOB,
		Gender:       req.Gender,
		FatherName:   req.FatherName,
		MotherName:   req.MotherName,
		Email:        req.Email,
		AadharNumber: req.AadharNumber,
	})
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
		"message": "Student updated successfully",
		"student": result.Student,
	})
}
