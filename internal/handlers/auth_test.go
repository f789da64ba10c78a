package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campuslink/studentportal-backend/internal/handlers"
	"github.com/campuslink/studentportal-backend/internal/models"
	"github.com/campuslink/studentportal-backend/internal/routes"
	"github.com/campuslink/studentportal-backend/internal/services"
	"github.com/campuslink/studentportal-backend/internal/storage"
)

type fakeSMS struct {
	sent []string // message bodies
	to   []string
	fail bool
}

func (f *fakeSMS) Send(to, body string) error {
	if f.fail {
		return errors.New("provider unavailable")
	}
	f.to = append(f.to, to)
	f.sent = append(f.sent, body)
	return nil
}

func (f *fakeSMS) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return strings.TrimPrefix(f.sent[len(f.sent)-1], "Your OTP is ")
}

type fixture struct {
	app   *fiber.App
	store *storage.MemoryStore
	sms   *fakeSMS
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := storage.NewMemoryStore()
	sms := &fakeSMS{}

	audit := services.NewAuditSink(store)
	otp := services.NewOTPService(store, sms, "+91")
	tokens := services.NewTokenService(store, []byte("test-secret"))
	auth := services.NewAuthService(store, otp, tokens)
	profile := services.NewProfileService(store, otp)

	app := fiber.New()
	routes.SetupRoutes(app, handlers.NewAuthHandler(auth, tokens, audit), handlers.NewStudentHandler(profile, audit), tokens)

	return &fixture{app: app, store: store, sms: sms}
}

func (f *fixture) seedStudent(t *testing.T, regNo, phone, passwordHash string) {
	t.Helper()
	require.NoError(t, f.store.SaveStudent(&models.Student{
		RegisterNumber: regNo,
		Name:           "Test Student",
		PhoneNumber:    phone,
		PasswordHash:   passwordHash,
	}))
}

func (f *fixture) request(t *testing.T, method, path string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestRegisterCheckEndpoint(t *testing.T) {
	t.Run("UnknownStudent", func(t *testing.T) {
		f := newFixture(t)

		resp, body := f.request(t, "POST", "/api/auth/verify-register",
			map[string]string{"register_number": "XX999"}, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Register number not found", body["error"])
	})

	t.Run("NoPasswordSendsOTP", func(t *testing.T) {
		f := newFixture(t)
		f.seedStudent(t, "AB123", "09876543210", "")

		resp, body := f.request(t, "POST", "/api/auth/verify-register",
			map[string]string{"register_number": "ab123"}, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OTP sent successfully", body["message"])
		assert.Equal(t, "+919876543210", body["phone_number"])
	})

	t.Run("RateLimited", func(t *testing.T) {
		f := newFixture(t)
		f.seedStudent(t, "AB123", "9876543210", "")

		resp, _ := f.request(t, "POST", "/api/auth/verify-register",
			map[string]string{"register_number": "AB123"}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := f.request(t, "POST", "/api/auth/verify-register",
			map[string]string{"register_number": "AB123"}, nil)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "Please wait before requesting a new OTP.", body["error"])
	})

	t.Run("PasswordSetPrompts", func(t *testing.T) {
		f := newFixture(t)
		f.seedStudent(t, "AB123", "9876543210", "hash")

		resp, body := f.request(t, "POST", "/api/auth/verify-register",
			map[string]string{"register_number": "AB123"}, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["password_set"])
		assert.Empty(t, f.sms.sent)
	})

	t.Run("DeliveryFailure", func(t *testing.T) {
		f := newFixture(t)
		f.seedStudent(t, "AB123", "9876543210", "")
		f.sms.fail = true

		resp, _ := f.request(t, "POST", "/api/auth/verify-register",
			map[string]string{"register_number": "AB123"}, nil)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("MissingRegisterNumber", func(t *testing.T) {
		f := newFixture(t)

		resp, _ := f.request(t, "POST", "/api/auth/verify-register",
			map[string]string{}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestOnboardingFlow(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "AB123", "9876543210", "")

	// Request OTP.
	resp, _ := f.request(t, "POST", "/api/auth/verify-register",
		map[string]string{"register_number": "AB123"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	code := f.sms.lastCode(t)

	// Wrong code first.
	resp, body := f.request(t, "POST", "/api/auth/verify-otp",
		map[string]string{"register_number": "AB123", "otp": "000000"}, nil)
	if code == "000000" {
		t.Skip("random code collided with the deliberately wrong guess")
	}
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid OTP", body["error"])

	// Correct code verifies.
	resp, body = f.request(t, "POST", "/api/auth/verify-otp",
		map[string]string{"register_number": "AB123", "otp": code}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OTP verified", body["message"])

	// Set password, get tokens.
	resp, body = f.request(t, "POST", "/api/auth/set-password",
		map[string]string{"register_number": "AB123", "password": "s3cret"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access"])
	assert.NotEmpty(t, body["refresh"])
	assert.Equal(t, "Test Student", body["name"])

	// Login with the new password.
	resp, body = f.request(t, "POST", "/api/auth/login",
		map[string]string{"register_number": "AB123", "password": "s3cret"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access"])

	// Wrong password.
	resp, body = f.request(t, "POST", "/api/auth/login",
		map[string]string{"register_number": "AB123", "password": "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Incorrect password", body["error"])
}

func TestRefreshEndpoint(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "AB123", "9876543210", "")

	_, body := f.request(t, "POST", "/api/auth/set-password",
		map[string]string{"register_number": "AB123", "password": "s3cret"}, nil)
	refresh := body["refresh"].(string)

	// First redemption rotates.
	resp, body := f.request(t, "POST", "/api/auth/refresh",
		map[string]string{"refresh": refresh}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	next := body["refresh"].(string)
	assert.NotEqual(t, refresh, next)

	// Replaying the rotated token fails.
	resp, body = f.request(t, "POST", "/api/auth/refresh",
		map[string]string{"refresh": refresh}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token has been revoked", body["error"])

	// Logout revokes the live token.
	resp, _ = f.request(t, "POST", "/api/auth/logout",
		map[string]string{"refresh": next}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.request(t, "POST", "/api/auth/refresh",
		map[string]string{"refresh": next}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Garbage token.
	resp, _ = f.request(t, "POST", "/api/auth/refresh",
		map[string]string{"refresh": "garbage"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestForgotPasswordEndpoint(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "AB123", "9876543210", "")

	// Onboard first so a password exists.
	_, _ = f.request(t, "POST", "/api/auth/set-password",
		map[string]string{"register_number": "AB123", "password": "old-pass"}, nil)

	// Step 1: request the reset OTP.
	resp, body := f.request(t, "POST", "/api/auth/forgot-password",
		map[string]string{"register_number": "AB123"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OTP sent successfully", body["message"])
	code := f.sms.lastCode(t)

	// Step 2: reset with OTP and new password.
	resp, body = f.request(t, "POST", "/api/auth/forgot-password",
		map[string]string{"register_number": "AB123", "otp": code, "new_password": "new-pass"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access"])

	// New password logs in, old one is gone.
	resp, _ = f.request(t, "POST", "/api/auth/login",
		map[string]string{"register_number": "AB123", "password": "new-pass"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = f.request(t, "POST", "/api/auth/login",
		map[string]string{"register_number": "AB123", "password": "old-pass"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfileEndpoints(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "AB123", "9876543210", "")

	_, body := f.request(t, "POST", "/api/auth/set-password",
		map[string]string{"register_number": "AB123", "password": "s3cret"}, nil)
	access := body["access"].(string)
	authHeader := map[string]string{"Authorization": "Bearer " + access}

	t.Run("RequiresToken", func(t *testing.T) {
		resp, _ := f.request(t, "GET", "/api/students/me", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Get", func(t *testing.T) {
		resp, body := f.request(t, "GET", "/api/students/me", nil, authHeader)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		student := body["student"].(map[string]interface{})
		assert.Equal(t, "AB123", student["register_number"])
	})

	t.Run("UpdateWithoutOTPSendsCode", func(t *testing.T) {
		resp, body := f.request(t, "PUT", "/api/students/me",
			map[string]string{"gender": "M"}, authHeader)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OTP sent successfully", body["message"])
	})

	t.Run("UpdateWithOTP", func(t *testing.T) {
		// Seed a newer code directly, dodging the rate limit from the
		// previous subtest. Only this newest row is checked.
		_, err := f.store.CreateOTP(&models.OTP{
			RegisterNumber: "AB123",
			Code:           "042981",
			Model:          gorm.Model{CreatedAt: time.Now()},
		})
		require.NoError(t, err)

		resp, body := f.request(t, "PUT", "/api/students/me",
			map[string]string{"otp": "042981", "dob": "2004-06-15", "father_name": "Father"}, authHeader)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Student updated successfully", body["message"])

		student, err := f.store.GetStudentByRegisterNumber("AB123")
		require.NoError(t, err)
		assert.Equal(t, "2004-06-15", student.DOB)
		assert.Equal(t, "Father", student.FatherName)
	})

	t.Run("BadDateRejected", func(t *testing.T) {
		_, err := f.store.CreateOTP(&models.OTP{
			RegisterNumber: "AB123",
			Code:           "131313",
			Model:          gorm.Model{CreatedAt: time.Now()},
		})
		require.NoError(t, err)

		resp, _ := f.request(t, "PUT", "/api/students/me",
			map[string]string{"otp": "131313", "dob": "15-06-2004"}, authHeader)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
