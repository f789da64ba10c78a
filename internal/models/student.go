package models

import (
	"gorm.io/gorm"
)

// Student is the credential-store record for one student. RegisterNumber is
// the immutable identity and is always stored and compared in uppercase.
type Student struct {
	gorm.Model
	RegisterNumber string `json:"register_number" gorm:"uniqueIndex;not null"`
	Name           string `json:"name" gorm:"not null"`
	PhoneNumber    string `json:"phone_number" gorm:"not null"` // local format; normalized at use time
	DOB            string `json:"dob"`                          // YYYY-MM-DD
	Gender         string `json:"gender"`
	FatherName     string `json:"father_name"`
	MotherName     string `json:"mother_name"`
	Email          string `json:"email"`
	AadharNumber   string `json:"aadhar_number"`
	PasswordHash   string `json:"-"`
}

// HasPassword reports whether the student has finished OTP onboarding and set
// a password. An empty hash means login must go through the OTP flow.
func (s *Student) HasPassword() bool {
	return s.PasswordHash != ""
}
