package services

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/storage"
)

const (
	defaultAvailabilityDays = 7
	slotIntervalMinutes     = 60
	maxSlots                = 20
)

// AvailabilityService derives bookable slots from provider schedules
type AvailabilityService struct {
	store storage.Store
	now   func() time.Time
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(store storage.Store) *AvailabilityService {
	return &AvailabilityService{store: store, now: time.Now}
}

// GetProviderAvailability returns open slots for the next `days` days,
// derived from the provider's working days/hours minus booked appointments.
// A failing store degrades to a deterministic sample schedule so the dialog
// can always proceed.
func (a *AvailabilityService) GetProviderAvailability(providerID string, days int) ([]*models.AvailabilitySlot, error) {
	if days <= 0 {
		days = defaultAvailabilityDays
	}

	provider, err := a.store.GetProvider(providerID)
	if err != nil {
		if err.Error() == "provider not found" {
			return []*models.AvailabilitySlot{}, nil
		}
		log.Printf("Availability lookup failed for %s, using sample schedule: %v", providerID, err)
		return a.sampleAvailability(days), nil
	}

	today := a.now().Format("2006-01-02")
	endDate := a.now().AddDate(0, 0, days).Format("2006-01-02")

	booked, err := a.store.GetProviderAppointmentsInRange(providerID, today, endDate)
	if err != nil {
		log.Printf("Booked-slot lookup failed for %s, using sample schedule: %v", providerID, err)
		return a.sampleAvailability(days), nil
	}

	return a.generateSlots(provider, booked, days), nil
}

// generateSlots walks the date window and emits every working-hours slot
// that is not already booked
func (a *AvailabilityService) generateSlots(provider *models.Provider, booked []*models.Appointment, days int) []*models.AvailabilitySlot {
	workingDays := make(map[string]bool)
	for _, day := range strings.Split(provider.AvailableDays, ",") {
		workingDays[strings.ToLower(strings.TrimSpace(day))] = true
	}

	times := generateTimeSlots(provider.AvailableHours, slotIntervalMinutes)

	bookedKeys := make(map[string]bool, len(booked))
	for _, appointment := range booked {
		bookedKeys[appointment.Date+" "+appointment.Time] = true
	}

	var slots []*models.AvailabilitySlot
	for i := 1; i <= days; i++ {
		date := a.now().AddDate(0, 0, i)
		if !workingDays[strings.ToLower(date.Weekday().String())] {
			continue
		}

		dateStr := date.Format("2006-01-02")
		for _, t := range times {
			if bookedKeys[dateStr+" "+t] {
				continue
			}
			slots = append(slots, &models.AvailabilitySlot{
				Date:       dateStr,
				Time:       t,
				Available:  true,
				ProviderID: provider.ProviderID,
			})
			if len(slots) >= maxSlots {
				return slots
			}
		}
	}
	return slots
}

// generateTimeSlots expands an "HH:MM-HH:MM" descriptor into interval starts
func generateTimeSlots(workingHours string, intervalMinutes int) []string {
	parts := strings.Split(workingHours, "-")
	if len(parts) != 2 {
		parts = []string{"09:00", "17:00"}
	}

	start := parseMinutes(parts[0])
	end := parseMinutes(parts[1])

	var slots []string
	for m := start; m < end; m += intervalMinutes {
		slots = append(slots, minutesToClock(m))
	}
	return slots
}

func parseMinutes(clock string) int {
	fields := strings.Split(strings.TrimSpace(clock), ":")
	if len(fields) != 2 {
		return 0
	}
	hours, _ := strconv.Atoi(fields[0])
	minutes, _ := strconv.Atoi(fields[1])
	return hours*60 + minutes
}

func minutesToClock(m int) string {
	hours := m / 60
	minutes := m % 60
	return twoDigits(hours) + ":" + twoDigits(minutes)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// sampleAvailability is the fallback schedule used when the store is
// unreachable: weekdays only, three morning/afternoon slots each
func (a *AvailabilityService) sampleAvailability(days int) []*models.AvailabilitySlot {
	times := []string{"09:00", "11:00", "14:00"}

	var slots []*models.AvailabilitySlot
	for i := 1; i <= days; i++ {
		date := a.now().AddDate(0, 0, i)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		for _, t := range times {
			slots = append(slots, &models.AvailabilitySlot{
				Date:      date.Format("2006-01-02"),
				Time:      t,
				Available: true,
			})
		}
	}
	return slots
}
