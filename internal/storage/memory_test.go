package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tujali/ussd-backend/internal/models"
)

func TestPatientLifecycle(t *testing.T) {
	store := NewMemoryStore()

	patient, err := store.CreatePatient(&models.Patient{Phone: "+254700000001"})
	require.NoError(t, err)
	assert.NotEmpty(t, patient.PatientID)
	assert.Equal(t, "Patient 0001", patient.Name)
	assert.Equal(t, "en", patient.Language)

	byID, err := store.GetPatient(patient.PatientID)
	require.NoError(t, err)
	assert.Equal(t, patient.Phone, byID.Phone)

	byPhone, err := store.GetPatientByPhone("+254700000001")
	require.NoError(t, err)
	assert.Equal(t, patient.PatientID, byPhone.PatientID)

	_, err = store.CreatePatient(&models.Patient{Phone: "+254700000001"})
	assert.EqualError(t, err, "patient already exists")

	_, err = store.GetPatient("PT99999")
	assert.EqualError(t, err, "patient not found")
}

func TestProviderDefaults(t *testing.T) {
	store := NewMemoryStore()

	provider, err := store.CreateProvider(&models.Provider{
		Name:           "Dr. Test",
		Specialization: "General Practitioner",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, provider.ProviderID)
	assert.Equal(t, "09:00-17:00", provider.AvailableHours)
	assert.Equal(t, "Monday,Tuesday,Wednesday,Thursday,Friday", provider.AvailableDays)
	assert.True(t, provider.Active)
}

func TestSearchProvidersFiltersAndSorts(t *testing.T) {
	store := NewMemoryStore()

	seed := []models.Provider{
		{Name: "A", Specialization: "Pediatrician", Location: "Nairobi", Rating: 4.5, YearsExperience: 5},
		{Name: "B", Specialization: "Pediatrician", Location: "Nairobi", Rating: 4.9, YearsExperience: 3},
		{Name: "C", Specialization: "Pediatrician", Location: "Kisumu", Rating: 4.7, YearsExperience: 10},
		{Name: "D", Specialization: "Cardiologist", Location: "Nairobi", Rating: 5.0, YearsExperience: 20},
	}
	for i := range seed {
		_, err := store.CreateProvider(&seed[i])
		require.NoError(t, err)
	}

	results, err := store.SearchProviders("pediatric", "nairobi", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Best rated first
	assert.Equal(t, "B", results[0].Name)
	assert.Equal(t, "A", results[1].Name)

	limited, err := store.SearchProviders("", "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestAppointmentRequiresReferences(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.CreateAppointment(&models.Appointment{
		PatientID:  "PT99999",
		ProviderID: "DR99999",
		Date:       "2026-01-06",
		Time:       "09:00",
	})
	assert.EqualError(t, err, "patient not found")
}

func TestGetAppointmentsByPatientFiltersTerminal(t *testing.T) {
	store := NewMemoryStore()

	patient, err := store.CreatePatient(&models.Patient{Phone: "+254700000001"})
	require.NoError(t, err)
	provider, err := store.CreateProvider(&models.Provider{Name: "Dr. Test", Specialization: "GP"})
	require.NoError(t, err)

	upcoming, err := store.CreateAppointment(&models.Appointment{
		PatientID:  patient.PatientID,
		ProviderID: provider.ProviderID,
		Date:       "2099-01-06",
		Time:       "09:00",
		Kind:       models.AppointmentKindPhysical,
	})
	require.NoError(t, err)

	cancelled, err := store.CreateAppointment(&models.Appointment{
		PatientID:  patient.PatientID,
		ProviderID: provider.ProviderID,
		Date:       "2099-01-07",
		Time:       "09:00",
		Kind:       models.AppointmentKindPhysical,
	})
	require.NoError(t, err)
	cancelled.Status = models.AppointmentStatusCancelled
	require.NoError(t, store.UpdateAppointment(cancelled))

	active, err := store.GetAppointmentsByPatient(patient.PatientID, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, upcoming.AppointmentID, active[0].AppointmentID)

	all, err := store.GetAppointmentsByPatient(patient.PatientID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetProviderAppointmentsInRange(t *testing.T) {
	store := NewMemoryStore()

	patient, err := store.CreatePatient(&models.Patient{Phone: "+254700000001"})
	require.NoError(t, err)
	provider, err := store.CreateProvider(&models.Provider{Name: "Dr. Test", Specialization: "GP"})
	require.NoError(t, err)

	dates := []string{"2026-01-05", "2026-01-08", "2026-01-20"}
	for _, date := range dates {
		_, err := store.CreateAppointment(&models.Appointment{
			PatientID:  patient.PatientID,
			ProviderID: provider.ProviderID,
			Date:       date,
			Time:       "09:00",
			Kind:       models.AppointmentKindPhysical,
		})
		require.NoError(t, err)
	}

	inRange, err := store.GetProviderAppointmentsInRange(provider.ProviderID, "2026-01-05", "2026-01-10")
	require.NoError(t, err)
	require.Len(t, inRange, 2)

	// Sorted ascending by date
	assert.Equal(t, "2026-01-05", inRange[0].Date)
	assert.Equal(t, "2026-01-08", inRange[1].Date)
}

func TestAppointmentStats(t *testing.T) {
	store := NewMemoryStore()

	patient, err := store.CreatePatient(&models.Patient{Phone: "+254700000001"})
	require.NoError(t, err)
	provider, err := store.CreateProvider(&models.Provider{
		Name: "Dr. Test", Specialization: "GP", ConsultationFee: 1000,
	})
	require.NoError(t, err)

	statuses := []string{
		models.AppointmentStatusConfirmed,
		models.AppointmentStatusCompleted,
		models.AppointmentStatusCancelled,
	}
	for i, status := range statuses {
		_, err := store.CreateAppointment(&models.Appointment{
			PatientID:  patient.PatientID,
			ProviderID: provider.ProviderID,
			Date:       "2026-01-06",
			Time:       []string{"09:00", "10:00", "11:00"}[i],
			Kind:       models.AppointmentKindPhysical,
			Status:     status,
			Source:     models.AppointmentSourceUSSD,
		})
		require.NoError(t, err)
	}

	stats, err := store.GetAppointmentStats("2026-01-01", "2026-01-31")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalAppointments)
	assert.Equal(t, 1, stats.Confirmed)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 3, stats.PhysicalVisits)
	assert.Equal(t, 3, stats.USSDBookings)
	assert.Equal(t, 1000.0, stats.AvgConsultationFee)

	outside, err := store.GetAppointmentStats("2026-02-01", "2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, 0, outside.TotalAppointments)
}

func TestLogsAppend(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.LogUSSDExchange(&models.USSDSessionLog{
		SessionID:   "s1",
		PhoneNumber: "+254700000001",
		InputText:   "1*nairobi",
	}))
	require.NoError(t, store.LogGeoSearch(&models.GeoSearchLog{
		PhoneNumber:   "+254700000001",
		LocationInput: "nairobi",
		ResultsCount:  5,
	}))
	require.NoError(t, store.CreateNotification(&models.Notification{
		Type:        models.NotificationAppointmentConfirmation,
		RecipientID: "PT00001",
		Status:      models.NotificationStatusSent,
	}))

	assert.Len(t, store.USSDLogs(), 1)
	assert.Len(t, store.GeoSearches(), 1)
	assert.Len(t, store.Notifications(), 1)
}
