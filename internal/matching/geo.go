// internal/matching/geo.go
// Approximate distance between two load-board locations. Pure functions, no I/O.

package matching

import (
	"math"
	"strings"
)

const earthRadiusMiles = 3958.8

// UnknownDistanceMiles is returned when either side of a distance computation
// has no usable geography. Incomplete addresses are common on the board, so
// callers deprioritize instead of failing.
const UnknownDistanceMiles = 9999

// sameStateMiles approximates the distance between two different cities in
// the same state when neither carries coordinates.
const sameStateMiles = 60

// Distance returns the approximate road-agnostic distance in miles between
// two locations. Resolution order: haversine over coordinates when both sides
// have them, zero for an exact city/state match, state-centroid haversine
// otherwise. Unknown geography yields UnknownDistanceMiles.
func Distance(a, b Location) float64 {
	if a.Lat != nil && a.Lng != nil && b.Lat != nil && b.Lng != nil {
		return haversineMiles(*a.Lat, *a.Lng, *b.Lat, *b.Lng)
	}

	aState := normalizeState(a.State)
	bState := normalizeState(b.State)
	if aState == "" || bState == "" {
		return UnknownDistanceMiles
	}

	if aState == bState {
		if sameCity(a.City, b.City) {
			return 0
		}
		return sameStateMiles
	}

	ca, okA := stateCentroids[aState]
	cb, okB := stateCentroids[bState]
	if !okA || !okB {
		return UnknownDistanceMiles
	}

	return haversineMiles(ca.lat, ca.lng, cb.lat, cb.lng)
}

// haversineMiles returns the great-circle distance in miles between two
// points specified in decimal degrees.
func haversineMiles(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

func sameCity(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

type centroid struct {
	lat, lng float64
}

// Geographic centers of US states plus DC. Good enough for deadhead
// approximation; routing precision is explicitly out of scope.
var stateCentroids = map[string]centroid{
	"AL": {32.78, -86.83}, "AK": {64.07, -152.28}, "AZ": {34.27, -111.66},
	"AR": {34.89, -92.44}, "CA": {37.18, -119.47}, "CO": {38.99, -105.55},
	"CT": {41.62, -72.73}, "DE": {38.99, -75.51}, "DC": {38.91, -77.01},
	"FL": {28.63, -82.45}, "GA": {32.64, -83.44}, "HI": {20.29, -156.37},
	"ID": {44.35, -114.61}, "IL": {40.04, -89.20}, "IN": {39.89, -86.28},
	"IA": {42.08, -93.50}, "KS": {38.49, -98.38}, "KY": {37.53, -85.30},
	"LA": {31.07, -92.00}, "ME": {45.37, -69.24}, "MD": {39.06, -76.80},
	"MA": {42.26, -71.81}, "MI": {44.35, -85.41}, "MN": {46.28, -94.31},
	"MS": {32.74, -89.67}, "MO": {38.35, -92.46}, "MT": {47.05, -109.63},
	"NE": {41.54, -99.80}, "NV": {39.33, -116.63}, "NH": {43.68, -71.58},
	"NJ": {40.19, -74.67}, "NM": {34.41, -106.11}, "NY": {42.95, -75.53},
	"NC": {35.56, -79.39}, "ND": {47.45, -100.47}, "OH": {40.29, -82.79},
	"OK": {35.58, -97.51}, "OR": {43.93, -120.56}, "PA": {40.88, -77.80},
	"RI": {41.68, -71.56}, "SC": {33.92, -80.90}, "SD": {44.44, -100.23},
	"TN": {35.86, -86.35}, "TX": {31.48, -99.33}, "UT": {39.31, -111.67},
	"VT": {44.07, -72.67}, "VA": {37.52, -78.85}, "WA": {47.38, -120.45},
	"WV": {38.64, -80.62}, "WI": {44.62, -89.99}, "WY": {42.99, -107.55},
}
