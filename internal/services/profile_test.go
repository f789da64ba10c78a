package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/studentportal-backend/internal/models"
	"github.com/campuslink/studentportal-backend/internal/storage"
)

func newProfileFixture(t *testing.T) (*ProfileService, *storage.MemoryStore, *fakeSMS) {
	t.Helper()
	store := storage.NewMemoryStore()
	sms := &fakeSMS{}
	return NewProfileService(store, NewOTPService(store, sms, "+91")), store, sms
}

func seedProfileOTP(t *testing.T, store storage.Store, regNo, code string) {
	t.Helper()
	_, err := store.CreateOTP(&models.OTP{
		RegisterNumber: regNo,
		Code:           code,
		Model:          backdated(time.Minute),
	})
	require.NoError(t, err)
}

func TestProfileGet(t *testing.T) {
	svc, store, _ := newProfileFixture(t)
	seedStudent(t, store, "AB123", "9876543210", "hash")

	student, err := svc.Get("ab123")
	require.NoError(t, err)
	assert.Equal(t, "AB123", student.RegisterNumber)

	_, err = svc.Get("NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileUpdate(t *testing.T) {
	t.Run("EmptyOTPSendsCode", func(t *testing.T) {
		svc, store, sms := newProfileFixture(t)
		seedStudent(t, store, "AB123", "09876543210", "hash")

		result, err := svc.Update("AB123", "", ProfileUpdate{Gender: "F"})
		require.NoError(t, err)
		assert.True(t, result.OTPSent)
		assert.Equal(t, "+919876543210", result.Phone)
		assert.Len(t, sms.sent, 1)

		// Nothing was applied alongside the send.
		student, err := store.GetStudentByRegisterNumber("AB123")
		require.NoError(t, err)
		assert.Empty(t, student.Gender)
	})

	t.Run("AppliesNonEmptyFieldsOnly", func(t *testing.T) {
		svc, store, _ := newProfileFixture(t)
		seeded := seedStudent(t, store, "AB123", "9876543210", "hash")
		seeded.FatherName = "Existing Father"
		require.NoError(t, store.SaveStudent(seeded))
		seedProfileOTP(t, store, "AB123", "042981")

		result, err := svc.Update("AB123", "042981", ProfileUpdate{
			DOB:    "2004-06-15",
			Gender: "M",
			Email:  "student@example.com",
		})
		require.NoError(t, err)
		require.NotNil(t, result.Student)

		student, err := store.GetStudentByRegisterNumber("AB123")
		require.NoError(t, err)
		assert.Equal(t, "2004-06-15", student.DOB)
		assert.Equal(t, "M", student.Gender)
		assert.Equal(t, "student@example.com", student.Email)
		// Absent fields stay untouched.
		assert.Equal(t, "Existing Father", student.FatherName)
	})

	t.Run("BadDateIsAtomic", func(t *testing.T) {
		svc, store, _ := newProfileFixture(t)
		seedStudent(t, store, "AB123", "9876543210", "hash")
		seedProfileOTP(t, store, "AB123", "042981")

		before, err := store.GetStudentByRegisterNumber("AB123")
		require.NoError(t, err)

		_, err = svc.Update("AB123", "042981", ProfileUpdate{
			DOB:    "not-a-date",
			Gender: "M",
		})
		assert.ErrorIs(t, err, ErrValidation)

		after, err := store.GetStudentByRegisterNumber("AB123")
		require.NoError(t, err)
		assert.Empty(t, after.Gender)
		assert.Empty(t, after.DOB)
		assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	})

	t.Run("WrongOTP", func(t *testing.T) {
		svc, store, _ := newProfileFixture(t)
		seedStudent(t, store, "AB123", "9876543210", "hash")
		seedProfileOTP(t, store, "AB123", "042981")

		_, err := svc.Update("AB123", "999999", ProfileUpdate{Gender: "M"})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("ExpiredOTP", func(t *testing.T) {
		svc, store, _ := newProfileFixture(t)
		seedStudent(t, store, "AB123", "9876543210", "hash")
		_, err := store.CreateOTP(&models.OTP{
			RegisterNumber: "AB123",
			Code:           "042981",
			Model:          backdated(6 * time.Minute),
		})
		require.NoError(t, err)

		_, err = svc.Update("AB123", "042981", ProfileUpdate{Gender: "M"})
		assert.ErrorIs(t, err, ErrExpired)
	})
}
