package storage

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/campuslink/studentportal-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/PostgreSQL.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func normalizeRegNo(regNo string) string {
	return strings.ToUpper(strings.TrimSpace(regNo))
}

// Student operations

func (d *DatabaseStore) GetStudentByRegisterNumber(regNo string) (*models.Student, error) {
	var student models.Student
	err := d.db.Where("register_number = ?", normalizeRegNo(regNo)).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (d *DatabaseStore) SaveStudent(student *models.Student) error {
	student.RegisterNumber = normalizeRegNo(student.RegisterNumber)
	return d.db.Save(student).Error
}

// OTP ledger operations

func (d *DatabaseStore) CreateOTP(otp *models.OTP) (*models.OTP, error) {
	otp.RegisterNumber = normalizeRegNo(otp.RegisterNumber)
	if err := d.db.Create(otp).Error; err != nil {
		return nil, err
	}
	return otp, nil
}

func (d *DatabaseStore) LatestOTP(regNo string) (*models.OTP, error) {
	var otp models.OTP
	err := d.db.Where("register_number = ?", normalizeRegNo(regNo)).
		Order("created_at DESC").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (d *DatabaseStore) LatestOTPSince(regNo string, since time.Time) (*models.OTP, error) {
	var otp models.OTP
	err := d.db.Where("register_number = ? AND created_at >= ?", normalizeRegNo(regNo), since).
		Order("created_at DESC").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (d *DatabaseStore) DeleteOTPs(regNo string) error {
	// Hard delete so a completed password reset leaves no replayable codes.
	return d.db.Unscoped().
		Where("register_number = ?", normalizeRegNo(regNo)).
		Delete(&models.OTP{}).Error
}

// Refresh-token deny-list operations

func (d *DatabaseStore) RevokeToken(token *models.RevokedToken) error {
	err := d.db.Create(token).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyRevoked
	}
	return err
}

func (d *DatabaseStore) IsTokenRevoked(jti string) (bool, error) {
	var count int64
	err := d.db.Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Audit operations

func (d *DatabaseStore) CreateErrorLog(entry *models.ErrorLog) error {
	return d.db.Create(entry).Error
}
