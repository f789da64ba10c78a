package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campuslink/studentportal-backend/internal/models"
	"github.com/campuslink/studentportal-backend/internal/storage"
)

// backdated builds a gorm.Model whose CreatedAt lies age in the past, for
// seeding ledger rows at a chosen point in time.
func backdated(age time.Duration) gorm.Model {
	return gorm.Model{CreatedAt: time.Now().Add(-age)}
}

type sentMessage struct {
	To   string
	Body string
}

// fakeSMS records outgoing messages and can simulate provider failures.
type fakeSMS struct {
	sent []sentMessage
	fail bool
}

func (f *fakeSMS) Send(to, body string) error {
	if f.fail {
		return errors.New("provider unavailable")
	}
	f.sent = append(f.sent, sentMessage{To: to, Body: body})
	return nil
}

// lastCode extracts the code from the most recently sent SMS body.
func (f *fakeSMS) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	body := f.sent[len(f.sent)-1].Body
	code := strings.TrimPrefix(body, "Your OTP is ")
	require.Len(t, code, 6)
	return code
}

func seedStudent(t *testing.T, store storage.Store, regNo, phone, passwordHash string) *models.Student {
	t.Helper()
	student := &models.Student{
		RegisterNumber: regNo,
		Name:           "Test Student",
		PhoneNumber:    phone,
		PasswordHash:   passwordHash,
	}
	require.NoError(t, store.SaveStudent(student))
	return student
}
