package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tujali/ussd-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/PostgreSQL
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by the given database connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Patient operations

func (d *DatabaseStore) CreatePatient(patient *models.Patient) (*models.Patient, error) {
	if err := d.db.Create(patient).Error; err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (d *DatabaseStore) GetPatient(patientID string) (*models.Patient, error) {
	var patient models.Patient
	err := d.db.Where("patient_id = ?", patientID).First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("patient not found")
	}
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (d *DatabaseStore) GetPatientByPhone(phone string) (*models.Patient, error) {
	var patient models.Patient
	err := d.db.Where("phone = ?", phone).First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("patient not found")
	}
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// Provider operations

func (d *DatabaseStore) CreateProvider(provider *models.Provider) (*models.Provider, error) {
	if err := d.db.Create(provider).Error; err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return provider, nil
}

func (d *DatabaseStore) GetProvider(providerID string) (*models.Provider, error) {
	var provider models.Provider
	err := d.db.Where("provider_id = ? AND active = ?", providerID, true).First(&provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("provider not found")
	}
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

func (d *DatabaseStore) GetActiveProviders() ([]*models.Provider, error) {
	var providers []*models.Provider
	err := d.db.Where("active = ?", true).Order("provider_id").Find(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (d *DatabaseStore) SearchProviders(specialization, location string, limit int) ([]*models.Provider, error) {
	query := d.db.Where("active = ?", true)
	if specialization != "" {
		query = query.Where("LOWER(specialization) LIKE LOWER(?)", "%"+specialization+"%")
	}
	if location != "" {
		query = query.Where("LOWER(location) LIKE LOWER(?)", "%"+location+"%")
	}

	query = query.Order("rating DESC, years_experience DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var providers []*models.Provider
	if err := query.Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

// Appointment operations

func (d *DatabaseStore) CreateAppointment(appointment *models.Appointment) (*models.Appointment, error) {
	// Validate references so a bad booking fails loudly, not at join time
	if _, err := d.GetPatient(appointment.PatientID); err != nil {
		return nil, err
	}
	if _, err := d.GetProvider(appointment.ProviderID); err != nil {
		return nil, err
	}

	if err := d.db.Create(appointment).Error; err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return appointment, nil
}

func (d *DatabaseStore) GetAppointment(appointmentID string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := d.db.Where("appointment_id = ?", appointmentID).First(&appointment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("appointment not found")
	}
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (d *DatabaseStore) GetAppointmentsByPatient(patientID string, includeHistory bool) ([]*models.Appointment, error) {
	query := d.db.Where("patient_id = ?", patientID)
	if !includeHistory {
		today := time.Now().Format("2006-01-02")
		query = query.Where("date >= ? AND status NOT IN ?", today,
			[]string{models.AppointmentStatusCancelled, models.AppointmentStatusCompleted})
	}

	var appointments []*models.Appointment
	err := query.Order("date DESC, time DESC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (d *DatabaseStore) GetProviderAppointmentsInRange(providerID, startDate, endDate string) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := d.db.Where("provider_id = ? AND date >= ? AND date <= ? AND status NOT IN ?",
		providerID, startDate, endDate,
		[]string{models.AppointmentStatusCancelled, models.AppointmentStatusCompleted}).
		Order("date, time").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (d *DatabaseStore) UpdateAppointment(appointment *models.Appointment) error {
	result := d.db.Model(&models.Appointment{}).
		Where("appointment_id = ?", appointment.AppointmentID).
		Updates(map[string]interface{}{
			"date":   appointment.Date,
			"time":   appointment.Time,
			"kind":   appointment.Kind,
			"status": appointment.Status,
			"notes":  appointment.Notes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

func (d *DatabaseStore) GetAppointmentStats(startDate, endDate string) (*models.AppointmentStats, error) {
	query := d.db.Model(&models.Appointment{})
	if startDate != "" {
		query = query.Where("date >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("date <= ?", endDate)
	}

	var appointments []*models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return nil, err
	}

	stats := &models.AppointmentStats{}
	feeTotal := 0.0
	feeCount := 0

	for _, appointment := range appointments {
		stats.TotalAppointments++
		switch appointment.Status {
		case models.AppointmentStatusConfirmed:
			stats.Confirmed++
		case models.AppointmentStatusCompleted:
			stats.Completed++
		case models.AppointmentStatusCancelled:
			stats.Cancelled++
		case models.AppointmentStatusNoShow:
			stats.NoShow++
		case models.AppointmentStatusRescheduled:
			stats.Rescheduled++
		}
		switch appointment.Kind {
		case models.AppointmentKindPhysical:
			stats.PhysicalVisits++
		case models.AppointmentKindTeleconsult:
			stats.Teleconsultations++
		}
		if appointment.Source == models.AppointmentSourceUSSD {
			stats.USSDBookings++
		}

		if provider, err := d.GetProvider(appointment.ProviderID); err == nil && provider.ConsultationFee > 0 {
			feeTotal += provider.ConsultationFee
			feeCount++
		}
	}

	if feeCount > 0 {
		stats.AvgConsultationFee = feeTotal / float64(feeCount)
	}
	return stats, nil
}

// Notification log

func (d *DatabaseStore) CreateNotification(notification *models.Notification) error {
	return d.db.Create(notification).Error
}

// USSD and geo search logs

func (d *DatabaseStore) LogUSSDExchange(entry *models.USSDSessionLog) error {
	return d.db.Create(entry).Error
}

func (d *DatabaseStore) LogGeoSearch(entry *models.GeoSearchLog) error {
	return d.db.Create(entry).Error
}
