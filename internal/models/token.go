package models

import (
	"time"

	"gorm.io/gorm"
)

// RevokedToken is the deny-list entry for a refresh token that has been
// rotated or logged out. The unique index on JTI is the serialization point
// for concurrent redemptions of the same token: only one insert wins.
type RevokedToken struct {
	gorm.Model
	JTI            string    `json:"jti" gorm:"uniqueIndex;not null"`
	RegisterNumber string    `json:"register_number" gorm:"index"`
	ExpiresAt      time.Time `json:"expires_at" gorm:"not null"` // when the row stops mattering
}
