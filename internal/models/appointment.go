package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Appointment represents a booked consultation between patient and provider
type Appointment struct {
	gorm.Model

	AppointmentID string `json:"appointment_id" gorm:"uniqueIndex"`
	PatientID     string `json:"patient_id"`
	ProviderID    string `json:"provider_id"`

	Date string `json:"date"` // ISO date "2006-01-02"
	Time string `json:"time"` // "15:04"
	Kind string `json:"kind"` // "physical" or "teleconsult"

	// Status tracking
	Status string `json:"status"` // see AppointmentStatus constants
	Source string `json:"source"` // booking channel, e.g. "ussd"
	Notes  string `json:"notes"`
}

// AppointmentStatus constants
const (
	AppointmentStatusConfirmed   = "confirmed"
	AppointmentStatusInProgress  = "in_progress"
	AppointmentStatusCompleted   = "completed"
	AppointmentStatusCancelled   = "cancelled"
	AppointmentStatusNoShow      = "no_show"
	AppointmentStatusRescheduled = "rescheduled"

	AppointmentKindPhysical    = "physical"
	AppointmentKindTeleconsult = "teleconsult"

	AppointmentSourceUSSD = "ussd"
	AppointmentSourceWeb  = "web"
)

var validAppointmentStatuses = map[string]bool{
	AppointmentStatusConfirmed:   true,
	AppointmentStatusInProgress:  true,
	AppointmentStatusCompleted:   true,
	AppointmentStatusCancelled:   true,
	AppointmentStatusNoShow:      true,
	AppointmentStatusRescheduled: true,
}

// IsValidAppointmentStatus checks a status against the allowed set
func IsValidAppointmentStatus(status string) bool {
	return validAppointmentStatuses[status]
}

// IsTerminal reports whether no further status or schedule mutation is allowed
func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentStatusCancelled || a.Status == AppointmentStatusCompleted
}

// BeforeCreate hook to auto-generate AppointmentID and default the status
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.AppointmentID == "" {
		a.AppointmentID = fmt.Sprintf("APT%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}

	if a.Status == "" {
		a.Status = AppointmentStatusConfirmed
	}
	if a.Source == "" {
		a.Source = AppointmentSourceUSSD
	}

	return nil
}

// KindLabel renders the appointment kind for display
func (a *Appointment) KindLabel() string {
	if a.Kind == AppointmentKindPhysical {
		return "Physical Visit"
	}
	return "Teleconsultation"
}
