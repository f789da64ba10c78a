package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/campuslink/studentportal-backend/internal/models"
	"github.com/campuslink/studentportal-backend/internal/storage"
)

// ProfileUpdate carries the mutable profile fields. Empty fields are left
// untouched; identity fields (register number, name, phone) are not here on
// purpose.
type ProfileUpdate struct {
	DOB          string
	Gender       string
	FatherName   string
	MotherName   string
	Email        string
	AadharNumber string
}

// ProfileUpdateResult reports whether an OTP was sent (step 1) or the update
// was applied (step 2).
type ProfileUpdateResult struct {
	OTPSent bool
	Phone   string
	Student *models.Student
}

// ProfileService applies OTP-gated updates to the allow-listed profile fields.
type ProfileService struct {
	store storage.Store
	otp   *OTPService
}

// NewProfileService creates the profile gateway.
func NewProfileService(store storage.Store, otp *OTPService) *ProfileService {
	return &ProfileService{store: store, otp: otp}
}

// Get returns the student record for the register number.
func (s *ProfileService) Get(regNo string) (*models.Student, error) {
	student, err := s.store.GetStudentByRegisterNumber(regNo)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: register number %s", ErrNotFound, regNo)
	}
	return student, err
}

// Update applies the allow-listed fields after OTP verification. An empty
// submittedOTP issues a fresh code instead of applying anything. Validation
// runs before any field is written: a bad date fails the whole request and
// leaves the record untouched.
func (s *ProfileService) Update(regNo, submittedOTP string, upd ProfileUpdate) (*ProfileUpdateResult, error) {
	student, err := s.store.GetStudentByRegisterNumber(regNo)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: register number %s", ErrNotFound, regNo)
	}
	if err != nil {
		return nil, err
	}

	if submittedOTP == "" {
		phone, err := s.otp.IssueOTP(student.RegisterNumber)
		if err != nil {
			return nil, err
		}
		return &ProfileUpdateResult{OTPSent: true, Phone: phone}, nil
	}

	if err := s.otp.VerifyOTP(student.RegisterNumber, submittedOTP); err != nil {
		return nil, err
	}

	if upd.DOB != "" {
		if _, err := time.Parse("2006-01-02", upd.DOB); err != nil {
			return nil, fmt.Errorf("%w: dob must be YYYY-MM-DD", ErrValidation)
		}
	}

	if upd.DOB != "" {
		student.DOB = upd.DOB
	}
	if upd.Gender != "" {
		student.Gender = upd.Gender
	}
	if upd.FatherName != "" {
		student.FatherName = upd.FatherName
	}
	if upd.MotherName != "" {
		student.MotherName = upd.MotherName
	}
	if upd.Email != "" {
		student.Email = upd.Email
	}
	if upd.AadharNumber != "" {
		student.AadharNumber = upd.AadharNumber
	}

	if err := s.store.SaveStudent(student); err != nil {
		return nil, err
	}
	return &ProfileUpdateResult{Student: student}, nil
}
