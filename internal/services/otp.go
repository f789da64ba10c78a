package services

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/campuslink/studentportal-backend/internal/models"
	"github.com/campuslink/studentportal-backend/internal/storage"
	"github.com/campuslink/studentportal-backend/internal/utils"
)

const (
	// OTPRateLimitWindow is the minimum gap between two OTP issuances for
	// the same student.
	OTPRateLimitWindow = time.Minute
	// OTPValidityWindow is how long a code stays verifiable after issuance.
	OTPValidityWindow = 5 * time.Minute

	otpLockStripes = 64
)

// OTPService issues and verifies one-time passcodes against the OTP ledger.
type OTPService struct {
	store       storage.Store
	sms         SMSSender
	countryCode string

	// Striped per-student locks: the rate-limit read and the ledger insert
	// must not interleave for the same register number.
	locks [otpLockStripes]sync.Mutex
}

// NewOTPService creates a new OTP engine. countryCode is the E.164 prefix
// applied to locally formatted phone numbers, e.g. "+91".
func NewOTPService(store storage.Store, sms SMSSender, countryCode string) *OTPService {
	return &OTPService{
		store:       store,
		sms:         sms,
		countryCode: countryCode,
	}
}

func (s *OTPService) lockFor(regNo string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(regNo))
	return &s.locks[h.Sum32()%otpLockStripes]
}

// IssueOTP generates a fresh code for the student, appends it to the ledger
// and sends it by SMS. Returns the normalized phone number the code went to;
// the code itself is never returned. A request within OTPRateLimitWindow of
// the previous issuance fails with ErrRateLimited. If SMS delivery fails the
// ledger row is kept, so an immediate retry is rate-limited.
func (s *OTPService) IssueOTP(regNo string) (string, error) {
	student, err := s.store.GetStudentByRegisterNumber(regNo)
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%w: register number %s", ErrNotFound, regNo)
	}
	if err != nil {
		return "", err
	}

	mu := s.lockFor(student.RegisterNumber)
	mu.Lock()
	otp, err := s.issueLocked(student)
	mu.Unlock()
	if err != nil {
		return "", err
	}

	phone := utils.NormalizePhone(student.PhoneNumber, s.countryCode)
	if err := s.sms.Send(phone, "Your OTP is "+otp.Code); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return phone, nil
}

func (s *OTPService) issueLocked(student *models.Student) (*models.OTP, error) {
	since := time.Now().Add(-OTPRateLimitWindow)
	_, err := s.store.LatestOTPSince(student.RegisterNumber, since)
	if err == nil {
		return nil, ErrRateLimited
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return nil, err
	}

	return s.store.CreateOTP(&models.OTP{
		RegisterNumber: student.RegisterNumber,
		Code:           code,
	})
}

// VerifyOTP checks the submitted code against the newest ledger row for the
// student. Only the latest row is ever consulted; older rows are dead. A
// successful verification does not consume the code, so the same code stays
// verifiable until it expires or a newer one is issued.
func (s *OTPService) VerifyOTP(regNo, submittedCode string) error {
	student, err := s.store.GetStudentByRegisterNumber(regNo)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: register number %s", ErrNotFound, regNo)
	}
	if err != nil {
		return err
	}

	otp, err := s.store.LatestOTP(student.RegisterNumber)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: no otp issued", ErrNotFound)
	}
	if err != nil {
		return err
	}

	if time.Since(otp.CreatedAt) > OTPValidityWindow {
		return ErrExpired
	}

	if otp.Code != submittedCode {
		return fmt.Errorf("%w: otp mismatch", ErrInvalid)
	}

	return nil
}
