package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Provider represents a doctor or clinic that can be booked.
// Read-only from the dialog engine's perspective; managed by staff tooling.
type Provider struct {
	gorm.Model

	ProviderID      string   `json:"provider_id" gorm:"uniqueIndex"`
	Name            string   `json:"name"`
	Specialization  string   `json:"specialization"`
	Phone           string   `json:"phone"`
	Location        string   `json:"location"` // free text, e.g. "Nairobi, Westlands"
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Hospital        string   `json:"hospital"`
	YearsExperience int      `json:"years_experience"`
	ConsultationFee float64  `json:"consultation_fee"`
	Languages       string   `json:"languages"`
	Rating          float64  `json:"rating" gorm:"default:0"`
	AvailableDays   string   `json:"available_days"`  // e.g. "Monday,Tuesday,Wednesday,Thursday,Friday"
	AvailableHours  string   `json:"available_hours"` // e.g. "09:00-17:00"
	Active          bool     `json:"active" gorm:"default:true"`
}

// BeforeCreate hook to auto-generate ProviderID and fill schedule defaults
func (p *Provider) BeforeCreate(tx *gorm.DB) error {
	if p.ProviderID == "" {
		p.ProviderID = fmt.Sprintf("DR%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}

	if !strings.HasPrefix(p.Phone, "+") && p.Phone != "" {
		p.Phone = "+254" + strings.TrimPrefix(p.Phone, "254")
	}

	if p.AvailableHours == "" {
		p.AvailableHours = "09:00-17:00"
	}
	if p.AvailableDays == "" {
		p.AvailableDays = "Monday,Tuesday,Wednesday,Thursday,Friday"
	}

	return nil
}

// HasCoordinates reports whether the provider has an exact stored position.
func (p *Provider) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// AvailabilitySlot is a bookable date+time derived from a provider's working
// hours minus existing appointments. Never persisted.
type AvailabilitySlot struct {
	Date       string `json:"date"` // ISO date "2006-01-02"
	Time       string `json:"time"` // "15:04"
	Available  bool   `json:"available"`
	ProviderID string `json:"provider_id"`
}

// DateLabel renders the slot date for menu display, e.g. "Mon Jan 2".
func (s *AvailabilitySlot) DateLabel() string {
	t, err := time.Parse("2006-01-02", s.Date)
	if err != nil {
		return s.Date
	}
	return t.Format("Mon Jan 2")
}
