package storage

import (
	"github.com/tujali/ussd-backend/internal/models"
)

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// Patient operations
	CreatePatient(patient *models.Patient) (*models.Patient, error)
	GetPatient(patientID string) (*models.Patient, error)
	GetPatientByPhone(phone string) (*models.Patient, error)

	// Provider operations
	CreateProvider(provider *models.Provider) (*models.Provider, error)
	GetProvider(providerID string) (*models.Provider, error)
	GetActiveProviders() ([]*models.Provider, error)
	SearchProviders(specialization, location string, limit int) ([]*models.Provider, error)

	// Appointment operations
	CreateAppointment(appointment *models.Appointment) (*models.Appointment, error)
	GetAppointment(appointmentID string) (*models.Appointment, error)
	GetAppointmentsByPatient(patientID string, includeHistory bool) ([]*models.Appointment, error)
	GetProviderAppointmentsInRange(providerID, startDate, endDate string) ([]*models.Appointment, error)
	UpdateAppointment(appointment *models.Appointment) error
	GetAppointmentStats(startDate, endDate string) (*models.AppointmentStats, error)

	// Notification log
	CreateNotification(notification *models.Notification) error

	// USSD and geo search logs
	LogUSSDExchange(entry *models.USSDSessionLog) error
	LogGeoSearch(entry *models.GeoSearchLog) error
}
