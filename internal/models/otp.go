package models

import (
	"gorm.io/gorm"
)

// OTP is one row in the append-only OTP ledger. Rows are never mutated after
// creation except for the Verified flag; only the newest row per student is
// ever authoritative. The ledger is emptied for a student when a password
// reset completes.
type OTP struct {
	gorm.Model
	RegisterNumber string `json:"register_number" gorm:"index;not null"`
	Code           string `json:"-" gorm:"not null"` // exactly 6 ASCII digits, keeps leading zeros
	Verified       bool   `json:"verified" gorm:"default:false"`
}
