package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/storage"
)

func TestParseLocationGPS(t *testing.T) {
	loc := ParseLocation("-1.2921, 36.8219")

	assert.Equal(t, LocationSourceGPS, loc.Source)
	assert.InDelta(t, -1.2921, loc.Lat, 0.0001)
	assert.InDelta(t, 36.8219, loc.Lng, 0.0001)
}

func TestParseLocationCity(t *testing.T) {
	loc := ParseLocation("Nairobi, CBD")

	// City match takes precedence over the landmark in the same string
	assert.Equal(t, LocationSourceCity, loc.Source)
	assert.Equal(t, "nairobi", loc.City)
	assert.InDelta(t, -1.286389, loc.Lat, 0.0001)
}

func TestParseLocationCityCaseInsensitive(t *testing.T) {
	loc := ParseLocation("  KISUMU  ")

	assert.Equal(t, LocationSourceCity, loc.Source)
	assert.Equal(t, "kisumu", loc.City)
}

func TestParseLocationLandmark(t *testing.T) {
	loc := ParseLocation("near kondele market")

	assert.Equal(t, LocationSourceLandmark, loc.Source)
	assert.Equal(t, "kondele", loc.Landmark)
	assert.Equal(t, "kisumu", loc.City)
}

func TestParseLocationDefault(t *testing.T) {
	loc := ParseLocation("some unknown village")

	assert.Equal(t, LocationSourceDefault, loc.Source)
	assert.Equal(t, "nairobi", loc.City)
}

func TestDistanceZero(t *testing.T) {
	assert.Equal(t, 0.0, Distance(-1.2921, 36.8219, -1.2921, 36.8219))
}

func TestDistanceSymmetry(t *testing.T) {
	a := Distance(-1.286389, 36.817223, -4.043740, 39.668207)
	b := Distance(-4.043740, 39.668207, -1.286389, 36.817223)

	assert.Equal(t, a, b)
}

func TestDistanceNairobiMombasa(t *testing.T) {
	d := Distance(-1.286389, 36.817223, -4.043740, 39.668207)

	// Great-circle distance between the two cities is roughly 440km
	assert.Greater(t, d, 400.0)
	assert.Less(t, d, 500.0)
}

func floatPtr(f float64) *float64 { return &f }

func TestRankProvidersSortedAscending(t *testing.T) {
	userLocation := ParseLocation("nairobi")

	providers := []*models.Provider{
		{ProviderID: "DR1", Name: "Far", Location: "Mombasa"},
		{ProviderID: "DR2", Name: "Near", Latitude: floatPtr(-1.2833), Longitude: floatPtr(36.8167)},
		{ProviderID: "DR3", Name: "NoLocation", Location: ""},
		{ProviderID: "DR4", Name: "SameCity", Location: "Nairobi, Westlands"},
	}

	ranked := RankProviders(userLocation, providers)
	require.Len(t, ranked, 4)

	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].Distance, ranked[i].Distance)
	}

	// Uncomputable distance sorts last
	assert.Equal(t, "NoLocation", ranked[3].Name)
	assert.Equal(t, unknownDistance, ranked[3].Distance)
}

func TestRankProvidersDeterministicTiers(t *testing.T) {
	userLocation := ParseLocation("nakuru")

	providers := []*models.Provider{
		{ProviderID: "DR1", Location: "Nakuru Town"},
		{ProviderID: "DR2", Location: "Eldoret"},
		{ProviderID: "DR3", Location: "Somewhere Rural"},
	}

	ranked := RankProviders(userLocation, providers)
	require.Len(t, ranked, 3)

	byID := make(map[string]float64)
	for _, r := range ranked {
		byID[r.ProviderID] = r.Distance
	}

	assert.Equal(t, sameCityDistance, byID["DR1"])
	assert.Equal(t, unknownLocationDistance, byID["DR3"])

	// Inter-city estimate is the exact Nakuru-Eldoret distance
	expected := Distance(-0.303099, 36.080025, 0.520240, 35.269779)
	assert.Equal(t, expected, byID["DR2"])
}

func TestFindNearestProvidersLimit(t *testing.T) {
	store := storage.NewMemoryStore()
	for i := 0; i < 12; i++ {
		_, err := store.CreateProvider(&models.Provider{
			Name:           "Doc",
			Specialization: "General Practitioner",
			Location:       "Nairobi",
		})
		require.NoError(t, err)
	}

	geo := NewGeoService(store)
	ranked, resolved := geo.FindNearestProviders("nairobi", 10)

	assert.Len(t, ranked, 10)
	assert.Equal(t, LocationSourceCity, resolved.Source)
}

func TestFindNearestProvidersFallbackPanel(t *testing.T) {
	geo := NewGeoService(failingStore{})

	ranked, resolved := geo.FindNearestProviders("nairobi", 10)

	require.Len(t, ranked, 5)
	assert.Equal(t, "nairobi", resolved.City)

	// The fallback panel is also sorted closest first
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].Distance, ranked[i].Distance)
	}
}
