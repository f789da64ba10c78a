package models

import (
	"gorm.io/gorm"
)

// ErrorLog is the audit-sink record for an unexpected internal error.
type ErrorLog struct {
	gorm.Model
	Error string `json:"error" gorm:"type:text"`
	Trace string `json:"trace" gorm:"type:text"`
}
