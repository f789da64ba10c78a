package storage

import (
	"sync"
	"time"

	"github.com/campuslink/studentportal-backend/internal/models"
)

// MemoryStore holds all data in memory. Used for tests and local development
// without a database.
type MemoryStore struct {
	students map[string]*models.Student
	otps     map[string][]*models.OTP // per register number, append order
	revoked  map[string]*models.RevokedToken
	logs     []*models.ErrorLog

	// Mutexes for thread safety
	studentMu sync.RWMutex
	otpMu     sync.RWMutex
	tokenMu   sync.Mutex
	logMu     sync.Mutex

	otpCounter     uint
	studentCounter uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students: make(map[string]*models.Student),
		otps:     make(map[string][]*models.OTP),
		revoked:  make(map[string]*models.RevokedToken),
	}
}

// Student operations

func (m *MemoryStore) GetStudentByRegisterNumber(regNo string) (*models.Student, error) {
	m.studentMu.RLock()
	defer m.studentMu.RUnlock()

	student, exists := m.students[normalizeRegNo(regNo)]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *student
	return &copied, nil
}

func (m *MemoryStore) SaveStudent(student *models.Student) error {
	m.studentMu.Lock()
	defer m.studentMu.Unlock()

	student.RegisterNumber = normalizeRegNo(student.RegisterNumber)
	if student.ID == 0 {
		m.studentCounter++
		student.ID = m.studentCounter
		student.CreatedAt = time.Now()
	}
	student.UpdatedAt = time.Now()

	copied := *student
	m.students[student.RegisterNumber] = &copied
	return nil
}

// OTP ledger operations

func (m *MemoryStore) CreateOTP(otp *models.OTP) (*models.OTP, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp.RegisterNumber = normalizeRegNo(otp.RegisterNumber)
	m.otpCounter++
	otp.ID = m.otpCounter
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	otp.UpdatedAt = otp.CreatedAt

	copied := *otp
	m.otps[otp.RegisterNumber] = append(m.otps[otp.RegisterNumber], &copied)
	return otp, nil
}

func (m *MemoryStore) LatestOTP(regNo string) (*models.OTP, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	records := m.otps[normalizeRegNo(regNo)]
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	latest := records[0]
	for _, r := range records[1:] {
		if r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	copied := *latest
	return &copied, nil
}

func (m *MemoryStore) LatestOTPSince(regNo string, since time.Time) (*models.OTP, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	var latest *models.OTP
	for _, r := range m.otps[normalizeRegNo(regNo)] {
		if r.CreatedAt.Before(since) {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (m *MemoryStore) DeleteOTPs(regNo string) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	delete(m.otps, normalizeRegNo(regNo))
	return nil
}

// Refresh-token deny-list operations

func (m *MemoryStore) RevokeToken(token *models.RevokedToken) error {
	m.tokenMu.Lock()
	defer m.tokenMu.Unlock()

	if _, exists := m.revoked[token.JTI]; exists {
		return ErrAlreadyRevoked
	}
	token.CreatedAt = time.Now()
	copied := *token
	m.revoked[token.JTI] = &copied
	return nil
}

func (m *MemoryStore) IsTokenRevoked(jti string) (bool, error) {
	m.tokenMu.Lock()
	defer m.tokenMu.Unlock()

	_, exists := m.revoked[jti]
	return exists, nil
}

// Audit operations

func (m *MemoryStore) CreateErrorLog(entry *models.ErrorLog) error {
	m.logMu.Lock()
	defer m.logMu.Unlock()

	entry.CreatedAt = time.Now()
	copied := *entry
	m.logs = append(m.logs, &copied)
	return nil
}

// ErrorLogs returns recorded audit entries. Test helper.
func (m *MemoryStore) ErrorLogs() []*models.ErrorLog {
	m.logMu.Lock()
	defer m.logMu.Unlock()

	out := make([]*models.ErrorLog, len(m.logs))
	copy(out, m.logs)
	return out
}
