package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/services"
	"github.com/tujali/ussd-backend/internal/storage"
)

// USSDHandler handles USSD gateway callbacks
type USSDHandler struct {
	ussd  *services.USSDService
	store storage.Store
}

// NewUSSDHandler creates a new USSD handler
func NewUSSDHandler(ussd *services.USSDService, store storage.Store) *USSDHandler {
	return &USSDHandler{
		ussd:  ussd,
		store: store,
	}
}

// HandleCallback processes a USSD gateway callback. The gateway posts
// form-encoded fields and expects a plain-text CON/END response on every
// turn, so this never returns an HTTP error for dialog failures.
func (h *USSDHandler) HandleCallback(c *fiber.Ctx) error {
	req := &services.USSDRequest{
		SessionID:   c.FormValue("sessionId"),
		ServiceCode: c.FormValue("serviceCode"),
		PhoneNumber: c.FormValue("phoneNumber"),
		Text:        c.FormValue("text"),
	}

	// The test console omits sessionId; give the turn a synthetic one so
	// the dialog still gets working memory
	if req.SessionID == "" {
		req.SessionID = "test-" + uuid.NewString()
	}

	response := h.ussd.HandleRequest(req)

	if err := h.store.LogUSSDExchange(&models.USSDSessionLog{
		SessionID:    req.SessionID,
		PhoneNumber:  req.PhoneNumber,
		ServiceCode:  req.ServiceCode,
		InputText:    req.Text,
		ResponseText: response,
	}); err != nil {
		log.Printf("⚠️ Failed to log USSD exchange: %v", err)
	}

	c.Set("Content-Type", "text/plain")
	return c.SendString(response)
}
