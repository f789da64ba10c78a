package storage

import (
	"errors"
	"time"

	"github.com/campuslink/studentportal-backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyRevoked is returned by RevokeToken when the JTI is already
	// on the deny-list. Callers use it to detect a lost rotation race.
	ErrAlreadyRevoked = errors.New("token already revoked")
)

// Store defines the interface for storage operations. All register-number
// parameters are normalized to uppercase by the implementations.
type Store interface {
	// Student operations
	GetStudentByRegisterNumber(regNo string) (*models.Student, error)
	SaveStudent(student *models.Student) error

	// OTP ledger operations
	CreateOTP(otp *models.OTP) (*models.OTP, error)
	LatestOTP(regNo string) (*models.OTP, error)
	LatestOTPSince(regNo string, since time.Time) (*models.OTP, error)
	DeleteOTPs(regNo string) error

	// Refresh-token deny-list operations
	RevokeToken(token *models.RevokedToken) error
	IsTokenRevoked(jti string) (bool, error)

	// Audit operations
	CreateErrorLog(entry *models.ErrorLog) error
}
