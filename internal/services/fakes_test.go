package services

import (
	"fmt"

	"github.com/tujali/ussd-backend/internal/models"
)

// failingStore errors on every operation, for exercising degraded paths
type failingStore struct{}

var errStoreDown = fmt.Errorf("store unavailable")

func (failingStore) CreatePatient(*models.Patient) (*models.Patient, error) {
	return nil, errStoreDown
}
func (failingStore) GetPatient(string) (*models.Patient, error)        { return nil, errStoreDown }
func (failingStore) GetPatientByPhone(string) (*models.Patient, error) { return nil, errStoreDown }
func (failingStore) CreateProvider(*models.Provider) (*models.Provider, error) {
	return nil, errStoreDown
}
func (failingStore) GetProvider(string) (*models.Provider, error)    { return nil, errStoreDown }
func (failingStore) GetActiveProviders() ([]*models.Provider, error) { return nil, errStoreDown }
func (failingStore) SearchProviders(string, string, int) ([]*models.Provider, error) {
	return nil, errStoreDown
}
func (failingStore) CreateAppointment(*models.Appointment) (*models.Appointment, error) {
	return nil, errStoreDown
}
func (failingStore) GetAppointment(string) (*models.Appointment, error) { return nil, errStoreDown }
func (failingStore) GetAppointmentsByPatient(string, bool) ([]*models.Appointment, error) {
	return nil, errStoreDown
}
func (failingStore) GetProviderAppointmentsInRange(string, string, string) ([]*models.Appointment, error) {
	return nil, errStoreDown
}
func (failingStore) UpdateAppointment(*models.Appointment) error { return errStoreDown }
func (failingStore) GetAppointmentStats(string, string) (*models.AppointmentStats, error) {
	return nil, errStoreDown
}
func (failingStore) CreateNotification(*models.Notification) error { return errStoreDown }
func (failingStore) LogUSSDExchange(*models.USSDSessionLog) error  { return errStoreDown }
func (failingStore) LogGeoSearch(*models.GeoSearchLog) error       { return errStoreDown }

// recordingNotifier captures SMS sends; set fail to simulate delivery errors
type recordingNotifier struct {
	messages []string
	fail     bool
}

func (n *recordingNotifier) SendSMS(to, message string) error {
	if n.fail {
		return fmt.Errorf("delivery failed")
	}
	n.messages = append(n.messages, to+": "+message)
	return nil
}
