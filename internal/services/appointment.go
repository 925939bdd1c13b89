package services

import (
	"fmt"
	"log"

	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/storage"
)

// BookingRequest carries the fields required to create an appointment
type BookingRequest struct {
	PatientID  string `json:"patient_id"`
	ProviderID string `json:"provider_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Kind       string `json:"kind"`
	Source     string `json:"source"`
	Notes      string `json:"notes"`
}

// AppointmentService is the booking transactor: it validates and persists
// appointment state transitions and triggers best-effort notifications
type AppointmentService struct {
	store        storage.Store
	availability *AvailabilityService
	notifier     Notifier
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(store storage.Store, availability *AvailabilityService, notifier Notifier) *AppointmentService {
	return &AppointmentService{
		store:        store,
		availability: availability,
		notifier:     notifier,
	}
}

// Create books a new appointment with status "confirmed" and sends a
// confirmation notification. Notification failure never fails the booking.
func (s *AppointmentService) Create(req *BookingRequest) (*models.Appointment, error) {
	if req.PatientID == "" || req.ProviderID == "" || req.Date == "" || req.Time == "" || req.Kind == "" {
		return nil, fmt.Errorf("missing required booking fields")
	}
	if req.Kind != models.AppointmentKindPhysical && req.Kind != models.AppointmentKindTeleconsult {
		return nil, fmt.Errorf("invalid appointment kind")
	}

	appointment := &models.Appointment{
		PatientID:  req.PatientID,
		ProviderID: req.ProviderID,
		Date:       req.Date,
		Time:       req.Time,
		Kind:       req.Kind,
		Status:     models.AppointmentStatusConfirmed,
		Source:     req.Source,
		Notes:      req.Notes,
	}

	created, err := s.store.CreateAppointment(appointment)
	if err != nil {
		return nil, err
	}

	log.Printf("Appointment created: %s for patient %s with provider %s",
		created.AppointmentID, created.PatientID, created.ProviderID)

	s.notify(created, models.NotificationAppointmentConfirmation, "Appointment Confirmed",
		fmt.Sprintf("Your appointment has been confirmed for %s at %s", created.Date, created.Time))

	return created, nil
}

// UpdateStatus moves an appointment to a new status from the allowed set.
// Cancelled and completed appointments are terminal and cannot change.
func (s *AppointmentService) UpdateStatus(appointmentID, status, notes string) (*models.Appointment, error) {
	if !models.IsValidAppointmentStatus(status) {
		return nil, fmt.Errorf("invalid status")
	}

	appointment, err := s.store.GetAppointment(appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.IsTerminal() {
		return nil, fmt.Errorf("cannot update a cancelled or completed appointment")
	}

	appointment.Status = status
	if notes != "" {
		appointment.Notes = appendNote(appointment.Notes, notes)
	}

	if err := s.store.UpdateAppointment(appointment); err != nil {
		return nil, err
	}

	s.notify(appointment, models.NotificationAppointmentStatusUpdate, "Appointment Status Update",
		fmt.Sprintf("Your appointment status has been updated to: %s", status))

	return appointment, nil
}

// Cancel sets an appointment to cancelled with a reason. Cancelling twice is
// a conflict, not a no-op.
func (s *AppointmentService) Cancel(appointmentID, reason string) (*models.Appointment, error) {
	appointment, err := s.store.GetAppointment(appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status == models.AppointmentStatusCancelled {
		return nil, fmt.Errorf("appointment is already cancelled")
	}
	if appointment.Status == models.AppointmentStatusCompleted {
		return nil, fmt.Errorf("cannot cancel a completed appointment")
	}

	note := "Cancelled by patient"
	if reason != "" {
		note = "Cancelled: " + reason
	}

	appointment.Status = models.AppointmentStatusCancelled
	appointment.Notes = appendNote(appointment.Notes, note)

	if err := s.store.UpdateAppointment(appointment); err != nil {
		return nil, err
	}

	s.notify(appointment, models.NotificationAppointmentCancellation, "Appointment Cancelled",
		fmt.Sprintf("Your appointment for %s at %s has been cancelled", appointment.Date, appointment.Time))

	return appointment, nil
}

// Reschedule moves an appointment to a new date/time, which must appear in
// the provider's freshly derived availability. The availability check and
// the write are two store calls, not one transaction: a concurrent booking
// of the same slot can still slip through (TODO: conditional update in the
// store once the schema grows a slot table).
func (s *AppointmentService) Reschedule(appointmentID, newDate, newTime string) (*models.Appointment, error) {
	if newDate == "" || newTime == "" {
		return nil, fmt.Errorf("new date and time are required")
	}

	appointment, err := s.store.GetAppointment(appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.IsTerminal() {
		return nil, fmt.Errorf("cannot reschedule a cancelled or completed appointment")
	}

	slots, err := s.availability.GetProviderAvailability(appointment.ProviderID, defaultAvailabilityDays)
	if err != nil {
		return nil, err
	}

	available := false
	for _, slot := range slots {
		if slot.Date == newDate && slot.Time == newTime {
			available = true
			break
		}
	}
	if !available {
		return nil, fmt.Errorf("selected time slot is not available")
	}

	note := fmt.Sprintf("Rescheduled from %s %s", appointment.Date, appointment.Time)
	appointment.Date = newDate
	appointment.Time = newTime
	appointment.Status = models.AppointmentStatusRescheduled
	appointment.Notes = appendNote(appointment.Notes, note)

	if err := s.store.UpdateAppointment(appointment); err != nil {
		return nil, err
	}

	s.notify(appointment, models.NotificationAppointmentReschedule, "Appointment Rescheduled",
		fmt.Sprintf("Your appointment has been rescheduled to %s at %s", appointment.Date, appointment.Time))

	return appointment, nil
}

// notify logs the notification and attempts SMS delivery. Both steps are
// best-effort: a failure is logged and swallowed.
func (s *AppointmentService) notify(appointment *models.Appointment, notificationType, title, message string) {
	status := models.NotificationStatusSent

	patient, err := s.store.GetPatient(appointment.PatientID)
	if err != nil {
		log.Printf("Cannot notify patient %s: %v", appointment.PatientID, err)
		status = models.NotificationStatusFailed
	} else if s.notifier != nil {
		if err := s.notifier.SendSMS(patient.Phone, message); err != nil {
			log.Printf("Failed to send %s SMS to %s: %v", notificationType, patient.Phone, err)
			status = models.NotificationStatusFailed
		}
	}

	logErr := s.store.CreateNotification(&models.Notification{
		Type:          notificationType,
		RecipientID:   appointment.PatientID,
		RecipientType: "patient",
		Title:         title,
		Message:       message,
		Status:        status,
	})
	if logErr != nil {
		log.Printf("Failed to log %s notification: %v", notificationType, logErr)
	}
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + " | " + note
}
