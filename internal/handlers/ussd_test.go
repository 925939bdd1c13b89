package handlers

import (
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/services"
	"github.com/tujali/ussd-backend/internal/storage"
)

type noopNotifier struct{}

func (noopNotifier) SendSMS(to, message string) error { return nil }

func newUSSDTestApp(t *testing.T) (*fiber.App, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore()

	_, err := store.CreateProvider(&models.Provider{
		Name:           "Wanjiku",
		Specialization: "General Practitioner",
		Location:       "Nairobi, Westlands",
	})
	require.NoError(t, err)

	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	geo := services.NewGeoService(store)
	availability := services.NewAvailabilityService(store)
	appointments := services.NewAppointmentService(store, availability, noopNotifier{})
	patients := services.NewPatientService(store)
	ussd := services.NewUSSDService(sessions, geo, availability, appointments, patients, store)

	app := fiber.New()
	handler := NewUSSDHandler(ussd, store)
	app.Post("/ussd", handler.HandleCallback)

	return app, store
}

func postUSSD(t *testing.T, app *fiber.App, form url.Values) string {
	t.Helper()

	req := httptest.NewRequest("POST", "/ussd", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestUSSDCallbackFirstTurn(t *testing.T) {
	app, store := newUSSDTestApp(t)

	body := postUSSD(t, app, url.Values{
		"sessionId":   {"s1"},
		"serviceCode": {"*384*4040#"},
		"phoneNumber": {"+254700000001"},
		"text":        {""},
	})

	assert.True(t, strings.HasPrefix(body, "CON "))
	assert.Contains(t, body, "Welcome to Tujali Health")

	// Every turn is logged with its response
	logs := store.USSDLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "s1", logs[0].SessionID)
	assert.True(t, strings.HasPrefix(logs[0].ResponseText, "CON "))
}

func TestUSSDCallbackMissingSessionID(t *testing.T) {
	app, _ := newUSSDTestApp(t)

	body := postUSSD(t, app, url.Values{
		"phoneNumber": {"+254700000001"},
		"text":        {""},
	})

	// The test console omits sessionId; the handler still answers
	assert.True(t, strings.HasPrefix(body, "CON "))
}

func TestUSSDCallbackMultiTurn(t *testing.T) {
	app, _ := newUSSDTestApp(t)

	postUSSD(t, app, url.Values{
		"sessionId":   {"s1"},
		"phoneNumber": {"+254700000001"},
		"text":        {""},
	})

	body := postUSSD(t, app, url.Values{
		"sessionId":   {"s1"},
		"phoneNumber": {"+254700000001"},
		"text":        {"1"},
	})

	assert.Contains(t, body, "Find Doctors Near You")
	assert.Contains(t, body, "Enter your location")
}
