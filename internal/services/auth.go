package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/campuslink/studentportal-backend/internal/models"
	"github.com/campuslink/studentportal-backend/internal/storage"
)

// AuthService drives the registration/login state machine. A student with no
// password hash is mid-onboarding and authenticates via OTP; once a password
// is set, login goes through the hash.
type AuthService struct {
	store  storage.Store
	otp    *OTPService
	tokens *TokenService
}

// NewAuthService creates the auth service over the given collaborators.
func NewAuthService(store storage.Store, otp *OTPService, tokens *TokenService) *AuthService {
	return &AuthService{store: store, otp: otp, tokens: tokens}
}

// RegisterCheckResult tells the client what the next step is after submitting
// a register number.
type RegisterCheckResult struct {
	PasswordSet bool
	Phone       string // normalized number the OTP went to, when one was sent
}

// CheckRegisterNumber is the entry point of the state machine. For a student
// without a password it issues an OTP and reports the delivery number; for a
// student with one it tells the client to prompt for the password instead.
func (s *AuthService) CheckRegisterNumber(regNo string) (*RegisterCheckResult, error) {
	student, err := s.store.GetStudentByRegisterNumber(regNo)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: register number %s", ErrNotFound, regNo)
	}
	if err != nil {
		return nil, err
	}

	if student.HasPassword() {
		return &RegisterCheckResult{PasswordSet: true}, nil
	}

	phone, err := s.otp.IssueOTP(student.RegisterNumber)
	if err != nil {
		return nil, err
	}
	return &RegisterCheckResult{Phone: phone}, nil
}

// VerifyOTP validates a submitted code for the student.
func (s *AuthService) VerifyOTP(regNo, code string) error {
	return s.otp.VerifyOTP(regNo, code)
}

// SetPassword stores a new password hash and issues a token pair. The caller
// is trusted to have verified an OTP first; no ticket is checked here.
func (s *AuthService) SetPassword(regNo, password string) (*TokenPair, *models.Student, error) {
	student, err := s.store.GetStudentByRegisterNumber(regNo)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: register number %s", ErrNotFound, regNo)
	}
	if err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	student.PasswordHash = string(hash)
	if err := s.store.SaveStudent(student); err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.IssuePair(student)
	if err != nil {
		return nil, nil, err
	}
	return pair, student, nil
}

// Login checks the password against the stored hash and issues tokens.
func (s *AuthService) Login(regNo, password string) (*TokenPair, *models.Student, error) {
	student, err := s.store.GetStudentByRegisterNumber(regNo)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: register number %s", ErrNotFound, regNo)
	}
	if err != nil {
		return nil, nil, err
	}

	if !student.HasPassword() {
		return nil, nil, fmt.Errorf("%w: no password set, complete OTP onboarding first", ErrValidation)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(password)); err != nil {
		return nil, nil, fmt.Errorf("%w: incorrect password", ErrInvalid)
	}

	pair, err := s.tokens.IssuePair(student)
	if err != nil {
		return nil, nil, err
	}
	return pair, student, nil
}

// ForgotPasswordResult is the outcome of either step of the reset flow.
type ForgotPasswordResult struct {
	OTPSent bool
	Phone   string
	Tokens  *TokenPair
	Student *models.Student
}

// ForgotPassword implements the two-step reset. Step 1 (no code, no new
// password) issues an OTP, only for students who already have a password.
// Step 2 verifies the code, stores the new hash, empties the student's OTP
// ledger so nothing is replayable, and issues tokens.
func (s *AuthService) ForgotPassword(regNo, otpCode, newPassword string) (*ForgotPasswordResult, error) {
	student, err := s.store.GetStudentByRegisterNumber(regNo)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: register number %s", ErrNotFound, regNo)
	}
	if err != nil {
		return nil, err
	}

	if otpCode == "" && newPassword == "" {
		if !student.HasPassword() {
			return nil, fmt.Errorf("%w: no password set, complete OTP onboarding first", ErrValidation)
		}
		phone, err := s.otp.IssueOTP(student.RegisterNumber)
		if err != nil {
			return nil, err
		}
		return &ForgotPasswordResult{OTPSent: true, Phone: phone}, nil
	}

	if otpCode == "" || newPassword == "" {
		return nil, fmt.Errorf("%w: otp and new_password are both required", ErrValidation)
	}

	if err := s.otp.VerifyOTP(student.RegisterNumber, otpCode); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	student.PasswordHash = string(hash)
	if err := s.store.SaveStudent(student); err != nil {
		return nil, err
	}

	if err := s.store.DeleteOTPs(student.RegisterNumber); err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(student)
	if err != nil {
		return nil, err
	}
	return &ForgotPasswordResult{Tokens: pair, Student: student}, nil
}

// SendOTP issues a standalone OTP for an existing student, rate-limited as
// usual. Returns the normalized phone number the code went to.
func (s *AuthService) SendOTP(regNo string) (string, error) {
	return s.otp.IssueOTP(regNo)
}
