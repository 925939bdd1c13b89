package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/storage"
)

// fixedMonday is a known Monday so weekday math in tests is stable
var fixedMonday = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

func newTestAvailability(store storage.Store) *AvailabilityService {
	svc := NewAvailabilityService(store)
	svc.now = func() time.Time { return fixedMonday }
	return svc
}

func TestAvailabilityGeneratesWorkingHourSlots(t *testing.T) {
	store := storage.NewMemoryStore()
	provider, err := store.CreateProvider(&models.Provider{
		Name:           "Dr. Test",
		Specialization: "General Practitioner",
		AvailableDays:  "Tuesday",
		AvailableHours: "09:00-12:00",
	})
	require.NoError(t, err)

	svc := newTestAvailability(store)
	slots, err := svc.GetProviderAvailability(provider.ProviderID, 7)
	require.NoError(t, err)

	// One working day in the window, three hourly slots
	require.Len(t, slots, 3)
	assert.Equal(t, "2026-01-06", slots[0].Date)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "10:00", slots[1].Time)
	assert.Equal(t, "11:00", slots[2].Time)
}

func TestAvailabilityExcludesBookedSlots(t *testing.T) {
	store := storage.NewMemoryStore()
	provider, err := store.CreateProvider(&models.Provider{
		Name:           "Dr. Test",
		Specialization: "General Practitioner",
		AvailableDays:  "Tuesday",
		AvailableHours: "09:00-11:00",
	})
	require.NoError(t, err)

	patient, err := store.CreatePatient(&models.Patient{Phone: "+254700000001"})
	require.NoError(t, err)

	_, err = store.CreateAppointment(&models.Appointment{
		PatientID:  patient.PatientID,
		ProviderID: provider.ProviderID,
		Date:       "2026-01-06",
		Time:       "09:00",
		Kind:       models.AppointmentKindPhysical,
	})
	require.NoError(t, err)

	svc := newTestAvailability(store)
	slots, err := svc.GetProviderAvailability(provider.ProviderID, 7)
	require.NoError(t, err)

	require.Len(t, slots, 1)
	assert.Equal(t, "10:00", slots[0].Time)
}

func TestAvailabilityCancelledBookingFreesSlot(t *testing.T) {
	store := storage.NewMemoryStore()
	provider, err := store.CreateProvider(&models.Provider{
		Name:           "Dr. Test",
		Specialization: "General Practitioner",
		AvailableDays:  "Tuesday",
		AvailableHours: "09:00-10:00",
	})
	require.NoError(t, err)

	patient, err := store.CreatePatient(&models.Patient{Phone: "+254700000001"})
	require.NoError(t, err)

	appointment, err := store.CreateAppointment(&models.Appointment{
		PatientID:  patient.PatientID,
		ProviderID: provider.ProviderID,
		Date:       "2026-01-06",
		Time:       "09:00",
		Kind:       models.AppointmentKindPhysical,
	})
	require.NoError(t, err)

	appointment.Status = models.AppointmentStatusCancelled
	require.NoError(t, store.UpdateAppointment(appointment))

	svc := newTestAvailability(store)
	slots, err := svc.GetProviderAvailability(provider.ProviderID, 7)
	require.NoError(t, err)

	require.Len(t, slots, 1)
	assert.Equal(t, "09:00", slots[0].Time)
}

func TestAvailabilityCapsSlotCount(t *testing.T) {
	store := storage.NewMemoryStore()
	provider, err := store.CreateProvider(&models.Provider{
		Name:           "Dr. Busy",
		Specialization: "General Practitioner",
		// Defaults: weekdays, 09:00-17:00, eight slots per day
	})
	require.NoError(t, err)

	svc := newTestAvailability(store)
	slots, err := svc.GetProviderAvailability(provider.ProviderID, 7)
	require.NoError(t, err)

	assert.Len(t, slots, maxSlots)
}

func TestAvailabilityUnknownProvider(t *testing.T) {
	svc := newTestAvailability(storage.NewMemoryStore())

	slots, err := svc.GetProviderAvailability("DR-missing", 7)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityStoreFailureDegradesToSample(t *testing.T) {
	svc := newTestAvailability(failingStore{})

	slots, err := svc.GetProviderAvailability("DR1", 7)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	// Sample schedule is weekdays only
	for _, slot := range slots {
		d, parseErr := time.Parse("2006-01-02", slot.Date)
		require.NoError(t, parseErr)
		assert.NotEqual(t, time.Saturday, d.Weekday())
		assert.NotEqual(t, time.Sunday, d.Weekday())
	}
}

func TestGenerateTimeSlots(t *testing.T) {
	slots := generateTimeSlots("09:00-12:00", 60)
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, slots)

	// Malformed descriptor falls back to the default window
	fallback := generateTimeSlots("all day", 60)
	assert.Equal(t, "09:00", fallback[0])
	assert.Len(t, fallback, 8)
}
