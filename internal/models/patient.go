package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Patient represents a person booking care through the USSD service.
// Patients are created lazily on first contact from a phone number.
type Patient struct {
	gorm.Model

	PatientID string `json:"patient_id" gorm:"uniqueIndex"`
	Name      string `json:"name"`
	Phone     string `json:"phone" gorm:"uniqueIndex"` // USSD originating number - unique
	Language  string `json:"language" gorm:"default:en"`
}

// BeforeCreate hook to auto-generate PatientID and normalize data
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.PatientID == "" {
		p.PatientID = fmt.Sprintf("PT%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}

	// Normalize phone number (ensure it starts with +254 if not already)
	if !strings.HasPrefix(p.Phone, "+") {
		p.Phone = "+254" + strings.TrimPrefix(p.Phone, "254")
	}

	if p.Name == "" {
		p.Name = DefaultPatientName(p.Phone)
	}

	if p.Language == "" {
		p.Language = "en"
	}

	return nil
}

// DefaultPatientName builds the placeholder name used until a patient
// registers their details ("Patient 1234" from the last 4 digits).
func DefaultPatientName(phone string) string {
	digits := phone
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "Patient " + digits
}
