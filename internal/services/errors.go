package services

import (
	"errors"
)

// Error taxonomy shared by all services. Handlers map these to HTTP statuses
// with errors.Is; everything here is recoverable by the caller.
var (
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("otp requested too soon")
	ErrExpired        = errors.New("otp expired")
	ErrInvalid        = errors.New("invalid credentials")
	ErrValidation     = errors.New("validation failed")
	ErrDeliveryFailed = errors.New("sms delivery failed")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenRevoked   = errors.New("token revoked")
)
