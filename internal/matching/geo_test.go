package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestDistanceCoordinates(t *testing.T) {
	denver := Location{City: "Denver", State: "CO", Lat: ptr(39.7392), Lng: ptr(-104.9903)}
	aurora := Location{City: "Aurora", State: "CO", Lat: ptr(39.7294), Lng: ptr(-104.8319)}

	d := Distance(denver, aurora)
	assert.InDelta(t, 8.5, d, 1.0, "Denver to Aurora should be roughly 8-9 miles")

	// Symmetric
	assert.InDelta(t, d, Distance(aurora, denver), 0.001)
}

func TestDistanceSameCityNoCoords(t *testing.T) {
	a := Location{City: "Denver", State: "CO"}
	b := Location{City: "denver", State: "co"}

	assert.Equal(t, float64(0), Distance(a, b))
}

func TestDistanceSameStateDifferentCity(t *testing.T) {
	a := Location{City: "Denver", State: "CO"}
	b := Location{City: "Colorado Springs", State: "CO"}

	assert.Equal(t, float64(sameStateMiles), Distance(a, b))
}

func TestDistanceCrossStateCentroids(t *testing.T) {
	a := Location{City: "Denver", State: "CO"}
	b := Location{City: "Cheyenne", State: "WY"}

	d := Distance(a, b)
	require.Less(t, d, float64(UnknownDistanceMiles))
	assert.Greater(t, d, 100.0, "CO and WY centroids are a few hundred miles apart")
	assert.Less(t, d, 500.0)
}

func TestDistanceUnknownGeography(t *testing.T) {
	known := Location{City: "Denver", State: "CO"}

	assert.Equal(t, float64(UnknownDistanceMiles), Distance(known, Location{}))
	assert.Equal(t, float64(UnknownDistanceMiles), Distance(Location{}, known))
	assert.Equal(t, float64(UnknownDistanceMiles), Distance(known, Location{City: "San Juan", State: "PR"}))
}

func TestDistancePrefersCoordinatesOverStates(t *testing.T) {
	// Both in CO but with coordinates present the haversine result wins over
	// the same-state approximation.
	a := Location{State: "CO", Lat: ptr(39.7392), Lng: ptr(-104.9903)}
	b := Location{State: "CO", Lat: ptr(38.8339), Lng: ptr(-104.8214)}

	d := Distance(a, b)
	assert.Greater(t, d, 55.0)
	assert.Less(t, d, 75.0)
}
