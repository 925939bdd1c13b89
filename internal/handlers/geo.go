package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/services"
	"github.com/tujali/ussd-backend/internal/storage"
)

// GeoHandler exposes the location resolver and proximity search over HTTP
type GeoHandler struct {
	geo   *services.GeoService
	store storage.Store
}

// NewGeoHandler creates a new geo handler
func NewGeoHandler(geo *services.GeoService, store storage.Store) *GeoHandler {
	return &GeoHandler{
		geo:   geo,
		store: store,
	}
}

// FindNearby resolves a free-text location and returns the closest providers
func (h *GeoHandler) FindNearby(c *fiber.Ctx) error {
	locationInput := c.Query("location")
	if locationInput == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "location query parameter is required",
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	phone := c.Query("phone")

	providers, resolved := h.geo.FindNearestProviders(locationInput, limit)

	if err := h.store.LogGeoSearch(&models.GeoSearchLog{
		PhoneNumber:   phone,
		LocationInput: locationInput,
		ResultsCount:  len(providers),
	}); err != nil {
		log.Printf("⚠️ Failed to log geo search: %v", err)
	}

	return c.JSON(fiber.Map{
		"location":  resolved,
		"providers": providers,
		"count":     len(providers),
	})
}

// ParseLocation resolves a free-text location without searching providers
func (h *GeoHandler) ParseLocation(c *fiber.Ctx) error {
	input := c.Query("input")
	if input == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "input query parameter is required",
		})
	}

	return c.JSON(fiber.Map{
		"input":    input,
		"location": services.ParseLocation(input),
	})
}

// Distance computes the great-circle distance between two coordinate pairs
func (h *GeoHandler) Distance(c *fiber.Ctx) error {
	lat1, err1 := strconv.ParseFloat(c.Query("lat1"), 64)
	lng1, err2 := strconv.ParseFloat(c.Query("lng1"), 64)
	lat2, err3 := strconv.ParseFloat(c.Query("lat2"), 64)
	lng2, err4 := strconv.ParseFloat(c.Query("lng2"), 64)

	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "lat1, lng1, lat2 and lng2 are required numeric parameters",
		})
	}

	return c.JSON(fiber.Map{
		"distance_km": services.Distance(lat1, lng1, lat2, lng2),
	})
}

// SupportedLocations lists the cities, landmarks and input formats the
// resolver understands
func (h *GeoHandler) SupportedLocations(c *fiber.Ctx) error {
	return c.JSON(services.SupportedLocations())
}
