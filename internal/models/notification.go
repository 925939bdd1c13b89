package models

import "gorm.io/gorm"

// Notification is a log row for every outbound delivery attempt
type Notification struct {
	gorm.Model

	Type          string `json:"type"` // e.g. "appointment_confirmation"
	RecipientID   string `json:"recipient_id"`
	RecipientType string `json:"recipient_type"` // "patient" or "provider"
	Title         string `json:"title"`
	Message       string `json:"message"`
	Status        string `json:"status"` // "sent" or "failed"
}

// Notification types
const (
	NotificationAppointmentConfirmation = "appointment_confirmation"
	NotificationAppointmentStatusUpdate = "appointment_status_update"
	NotificationAppointmentCancellation = "appointment_cancellation"
	NotificationAppointmentReschedule   = "appointment_reschedule"

	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)
