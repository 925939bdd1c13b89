package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tujali/ussd-backend/internal/models"
)

// MemoryStore holds all data in memory for testing and local development
type MemoryStore struct {
	patients     map[string]*models.Patient
	providers    map[string]*models.Provider
	appointments map[string]*models.Appointment

	notifications []*models.Notification
	ussdLogs      []*models.USSDSessionLog
	geoLogs       []*models.GeoSearchLog

	// Mutexes for thread safety
	patientMu     sync.RWMutex
	providerMu    sync.RWMutex
	appointmentMu sync.RWMutex
	logMu         sync.Mutex

	// Counters for ID generation
	patientCounter     int
	providerCounter    int
	appointmentCounter int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients:     make(map[string]*models.Patient),
		providers:    make(map[string]*models.Provider),
		appointments: make(map[string]*models.Appointment),
	}
}

// Patient operations

func (m *MemoryStore) CreatePatient(patient *models.Patient) (*models.Patient, error) {
	m.patientMu.Lock()
	defer m.patientMu.Unlock()

	for _, existing := range m.patients {
		if existing.Phone == patient.Phone {
			return nil, fmt.Errorf("patient already exists")
		}
	}

	m.patientCounter++
	if patient.PatientID == "" {
		patient.PatientID = fmt.Sprintf("PT%05d", m.patientCounter)
	}
	if patient.Name == "" {
		patient.Name = models.DefaultPatientName(patient.Phone)
	}
	if patient.Language == "" {
		patient.Language = "en"
	}
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	m.patients[patient.PatientID] = patient
	return patient, nil
}

func (m *MemoryStore) GetPatient(patientID string) (*models.Patient, error) {
	m.patientMu.RLock()
	defer m.patientMu.RUnlock()

	patient, exists := m.patients[patientID]
	if !exists {
		return nil, fmt.Errorf("patient not found")
	}
	return patient, nil
}

func (m *MemoryStore) GetPatientByPhone(phone string) (*models.Patient, error) {
	m.patientMu.RLock()
	defer m.patientMu.RUnlock()

	for _, patient := range m.patients {
		if patient.Phone == phone {
			return patient, nil
		}
	}
	return nil, fmt.Errorf("patient not found")
}

// Provider operations

func (m *MemoryStore) CreateProvider(provider *models.Provider) (*models.Provider, error) {
	m.providerMu.Lock()
	defer m.providerMu.Unlock()

	m.providerCounter++
	if provider.ProviderID == "" {
		provider.ProviderID = fmt.Sprintf("DR%05d", m.providerCounter)
	}
	if provider.AvailableHours == "" {
		provider.AvailableHours = "09:00-17:00"
	}
	if provider.AvailableDays == "" {
		provider.AvailableDays = "Monday,Tuesday,Wednesday,Thursday,Friday"
	}
	provider.Active = true
	provider.CreatedAt = time.Now()
	provider.UpdatedAt = time.Now()

	m.providers[provider.ProviderID] = provider
	return provider, nil
}

func (m *MemoryStore) GetProvider(providerID string) (*models.Provider, error) {
	m.providerMu.RLock()
	defer m.providerMu.RUnlock()

	provider, exists := m.providers[providerID]
	if !exists || !provider.Active {
		return nil, fmt.Errorf("provider not found")
	}
	return provider, nil
}

func (m *MemoryStore) GetActiveProviders() ([]*models.Provider, error) {
	m.providerMu.RLock()
	defer m.providerMu.RUnlock()

	var providers []*models.Provider
	for _, provider := range m.providers {
		if provider.Active {
			providers = append(providers, provider)
		}
	}

	sort.Slice(providers, func(i, j int) bool {
		return providers[i].ProviderID < providers[j].ProviderID
	})
	return providers, nil
}

func (m *MemoryStore) SearchProviders(specialization, location string, limit int) ([]*models.Provider, error) {
	m.providerMu.RLock()
	defer m.providerMu.RUnlock()

	var results []*models.Provider
	for _, provider := range m.providers {
		if !provider.Active {
			continue
		}
		if specialization != "" && !strings.Contains(strings.ToLower(provider.Specialization), strings.ToLower(specialization)) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(provider.Location), strings.ToLower(location)) {
			continue
		}
		results = append(results, provider)
	}

	// Best rated first, then most experienced
	sort.Slice(results, func(i, j int) bool {
		if results[i].Rating != results[j].Rating {
			return results[i].Rating > results[j].Rating
		}
		return results[i].YearsExperience > results[j].YearsExperience
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Appointment operations

func (m *MemoryStore) CreateAppointment(appointment *models.Appointment) (*models.Appointment, error) {
	// Validate references before taking the appointment lock
	if _, err := m.GetPatient(appointment.PatientID); err != nil {
		return nil, err
	}
	if _, err := m.GetProvider(appointment.ProviderID); err != nil {
		return nil, err
	}

	m.appointmentMu.Lock()
	defer m.appointmentMu.Unlock()

	m.appointmentCounter++
	if appointment.AppointmentID == "" {
		appointment.AppointmentID = fmt.Sprintf("APT%05d", m.appointmentCounter)
	}
	if appointment.Status == "" {
		appointment.Status = models.AppointmentStatusConfirmed
	}
	if appointment.Source == "" {
		appointment.Source = models.AppointmentSourceUSSD
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	m.appointments[appointment.AppointmentID] = appointment
	return appointment, nil
}

func (m *MemoryStore) GetAppointment(appointmentID string) (*models.Appointment, error) {
	m.appointmentMu.RLock()
	defer m.appointmentMu.RUnlock()

	appointment, exists := m.appointments[appointmentID]
	if !exists {
		return nil, fmt.Errorf("appointment not found")
	}
	return appointment, nil
}

func (m *MemoryStore) GetAppointmentsByPatient(patientID string, includeHistory bool) ([]*models.Appointment, error) {
	m.appointmentMu.RLock()
	defer m.appointmentMu.RUnlock()

	today := time.Now().Format("2006-01-02")

	var appointments []*models.Appointment
	for _, appointment := range m.appointments {
		if appointment.PatientID != patientID {
			continue
		}
		if !includeHistory {
			if appointment.IsTerminal() || appointment.Date < today {
				continue
			}
		}
		appointments = append(appointments, appointment)
	}

	// Most recent date first, matching the dialog listing order
	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Date != appointments[j].Date {
			return appointments[i].Date > appointments[j].Date
		}
		return appointments[i].Time > appointments[j].Time
	})
	return appointments, nil
}

func (m *MemoryStore) GetProviderAppointmentsInRange(providerID, startDate, endDate string) ([]*models.Appointment, error) {
	m.appointmentMu.RLock()
	defer m.appointmentMu.RUnlock()

	var appointments []*models.Appointment
	for _, appointment := range m.appointments {
		if appointment.ProviderID != providerID {
			continue
		}
		if appointment.Date < startDate || appointment.Date > endDate {
			continue
		}
		if appointment.IsTerminal() {
			continue
		}
		appointments = append(appointments, appointment)
	}

	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Date != appointments[j].Date {
			return appointments[i].Date < appointments[j].Date
		}
		return appointments[i].Time < appointments[j].Time
	})
	return appointments, nil
}

func (m *MemoryStore) UpdateAppointment(appointment *models.Appointment) error {
	m.appointmentMu.Lock()
	defer m.appointmentMu.Unlock()

	if _, exists := m.appointments[appointment.AppointmentID]; !exists {
		return fmt.Errorf("appointment not found")
	}

	appointment.UpdatedAt = time.Now()
	m.appointments[appointment.AppointmentID] = appointment
	return nil
}

func (m *MemoryStore) GetAppointmentStats(startDate, endDate string) (*models.AppointmentStats, error) {
	m.appointmentMu.RLock()
	defer m.appointmentMu.RUnlock()

	stats := &models.AppointmentStats{}
	feeTotal := 0.0
	feeCount := 0

	for _, appointment := range m.appointments {
		if startDate != "" && appointment.Date < startDate {
			continue
		}
		if endDate != "" && appointment.Date > endDate {
			continue
		}

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

		if provider, ok := m.providers[appointment.ProviderID]; ok && provider.ConsultationFee > 0 {
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

func (m *MemoryStore) CreateNotification(notification *models.Notification) error {
	m.logMu.Lock()
	defer m.logMu.Unlock()

	notification.CreatedAt = time.Now()
	m.notifications = append(m.notifications, notification)
	return nil
}

// Notifications returns all logged notifications (for tests and monitoring)
func (m *MemoryStore) Notifications() []*models.Notification {
	m.logMu.Lock()
	defer m.logMu.Unlock()

	out := make([]*models.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// USSD and geo search logs

func (m *MemoryStore) LogUSSDExchange(entry *models.USSDSessionLog) error {
	m.logMu.Lock()
	defer m.logMu.Unlock()

	entry.CreatedAt = time.Now()
	m.ussdLogs = append(m.ussdLogs, entry)
	return nil
}

// USSDLogs returns all logged dialog turns (for tests and monitoring)
func (m *MemoryStore) USSDLogs() []*models.USSDSessionLog {
	m.logMu.Lock()
	defer m.logMu.Unlock()

	out := make([]*models.USSDSessionLog, len(m.ussdLogs))
	copy(out, m.ussdLogs)
	return out
}

func (m *MemoryStore) LogGeoSearch(entry *models.GeoSearchLog) error {
	m.logMu.Lock()
	defer m.logMu.Unlock()

	entry.CreatedAt = time.Now()
	m.geoLogs = append(m.geoLogs, entry)
	return nil
}

// GeoSearches returns all logged geo searches (for tests and monitoring)
func (m *MemoryStore) GeoSearches() []*models.GeoSearchLog {
	m.logMu.Lock()
	defer m.logMu.Unlock()

	out := make([]*models.GeoSearchLog, len(m.geoLogs))
	copy(out, m.geoLogs)
	return out
}
