package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/services"
	"github.com/tujali/ussd-backend/internal/storage"
)

// ProviderHandler handles provider-related requests
type ProviderHandler struct {
	store        storage.Store
	availability *services.AvailabilityService
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(store storage.Store, availability *services.AvailabilityService) *ProviderHandler {
	return &ProviderHandler{
		store:        store,
		availability: availability,
	}
}

// CreateProvider registers a new doctor or clinic
func (h *ProviderHandler) CreateProvider(c *fiber.Ctx) error {
	var provider models.Provider

	if err := c.BodyParser(&provider); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if provider.Name == "" || provider.Specialization == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and specialization are required",
		})
	}

	created, err := h.store.CreateProvider(&provider)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create provider",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Provider registered successfully",
		"provider": created,
	})
}

// GetProvider retrieves a provider by ID
func (h *ProviderHandler) GetProvider(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Provider ID is required",
		})
	}

	provider, err := h.store.GetProvider(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Provider not found",
		})
	}

	return c.JSON(provider)
}

// SearchProviders filters active providers by specialization and location
func (h *ProviderHandler) SearchProviders(c *fiber.Ctx) error {
	specialization := c.Query("specialization")
	location := c.Query("location")
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	providers, err := h.store.SearchProviders(specialization, location, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to search providers",
		})
	}

	return c.JSON(fiber.Map{
		"providers": providers,
		"count":     len(providers),
	})
}

// GetProviderAvailability returns open slots for a provider
func (h *ProviderHandler) GetProviderAvailability(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Provider ID is required",
		})
	}

	days, _ := strconv.Atoi(c.Query("days", "7"))

	slots, err := h.availability.GetProviderAvailability(id, days)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to derive availability",
		})
	}

	return c.JSON(fiber.Map{
		"provider_id": id,
		"slots":       slots,
		"count":       len(slots),
	})
}
