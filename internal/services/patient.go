package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/storage"
)

// PatientService looks up and lazily registers patients by phone number
type PatientService struct {
	store storage.Store
}

// NewPatientService creates a new patient service
func NewPatientService(store storage.Store) *PatientService {
	return &PatientService{store: store}
}

// GetOrCreateByPhone returns the patient for a phone number, creating one on
// first contact. It never fails: if the store is unreachable it returns a
// synthetic fallback patient so the dialog can continue.
func (p *PatientService) GetOrCreateByPhone(phone string) *models.Patient {
	patient, err := p.store.GetPatientByPhone(phone)
	if err == nil {
		return patient
	}

	if err.Error() == "patient not found" {
		created, createErr := p.store.CreatePatient(&models.Patient{Phone: phone})
		if createErr == nil {
			log.Printf("New patient created: %s", phone)
			return created
		}
		log.Printf("Patient create failed, using fallback: %v", createErr)
	} else {
		log.Printf("Patient lookup failed, using fallback: %v", err)
	}

	return fallbackPatient(phone)
}

// fallbackPatient builds a deterministic stand-in patient from the phone
// number so repeated turns during an outage see the same identity
func fallbackPatient(phone string) *models.Patient {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}

	return &models.Patient{
		PatientID: fmt.Sprintf("PT9%s", digits),
		Name:      models.DefaultPatientName(phone),
		Phone:     phone,
		Language:  "en",
	}
}
