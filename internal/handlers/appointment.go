package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/services"
	"github.com/tujali/ussd-backend/internal/storage"
)

// AppointmentHandler handles appointment-related requests
type AppointmentHandler struct {
	appointments *services.AppointmentService
	store        storage.Store
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(appointments *services.AppointmentService, store storage.Store) *AppointmentHandler {
	return &AppointmentHandler{
		appointments: appointments,
		store:        store,
	}
}

// CreateAppointment books an appointment through the API surface
func (h *AppointmentHandler) CreateAppointment(c *fiber.Ctx) error {
	var req services.BookingRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Source == "" {
		req.Source = models.AppointmentSourceWeb
	}

	appointment, err := h.appointments.Create(&req)
	if err != nil {
		switch err.Error() {
		case "missing required booking fields", "invalid appointment kind":
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create appointment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Appointment booked successfully",
		"appointment": appointment,
	})
}

// GetAppointment retrieves an appointment by ID
func (h *AppointmentHandler) GetAppointment(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Appointment ID is required",
		})
	}

	appointment, err := h.store.GetAppointment(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}

	return c.JSON(appointment)
}

// GetPatientAppointments lists a patient's appointments. Pass ?history=true
// to include past and terminal appointments.
func (h *AppointmentHandler) GetPatientAppointments(c *fiber.Ctx) error {
	patientID := c.Params("patientID")
	if patientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Patient ID is required",
		})
	}

	includeHistory := c.Query("history") == "true"

	appointments, err := h.store.GetAppointmentsByPatient(patientID, includeHistory)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve appointments",
		})
	}

	return c.JSON(fiber.Map{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// UpdateAppointmentStatus moves an appointment to a new status
func (h *AppointmentHandler) UpdateAppointmentStatus(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	appointment, err := h.appointments.UpdateStatus(id, req.Status, req.Notes)
	if err != nil {
		switch err.Error() {
		case "invalid status":
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid appointment status",
			})
		case "appointment not found":
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Appointment not found",
			})
		case "cannot update a cancelled or completed appointment":
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update appointment",
		})
	}

	return c.JSON(fiber.Map{
		"message":     "Appointment status updated",
		"appointment": appointment,
	})
}

// CancelAppointment cancels an appointment with an optional reason
func (h *AppointmentHandler) CancelAppointment(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional on cancel
	_ = c.BodyParser(&req)

	appointment, err := h.appointments.Cancel(id, req.Reason)
	if err != nil {
		switch err.Error() {
		case "appointment not found":
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Appointment not found",
			})
		case "appointment is already cancelled", "cannot cancel a completed appointment":
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to cancel appointment",
		})
	}

	return c.JSON(fiber.Map{
		"message":     "Appointment cancelled",
		"appointment": appointment,
	})
}

// RescheduleAppointment moves an appointment to a new available slot
func (h *AppointmentHandler) RescheduleAppointment(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	appointment, err := h.appointments.Reschedule(id, req.Date, req.Time)
	if err != nil {
		switch err.Error() {
		case "new date and time are required":
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case "appointment not found":
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Appointment not found",
			})
		case "cannot reschedule a cancelled or completed appointment":
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		case "selected time slot is not available":
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reschedule appointment",
		})
	}

	return c.JSON(fiber.Map{
		"message":     "Appointment rescheduled",
		"appointment": appointment,
	})
}

// GetAppointmentStats aggregates appointment counts for a date range
func (h *AppointmentHandler) GetAppointmentStats(c *fiber.Ctx) error {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	stats, err := h.store.GetAppointmentStats(startDate, endDate)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to aggregate statistics",
		})
	}

	return c.JSON(fiber.Map{
		"stats":      stats,
		"start_date": startDate,
		"end_date":   endDate,
	})
}
