package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapacityRemainingCuft(t *testing.T) {
	trip := &Trip{CapacityCuft: 1000, CapacityUsedCuft: 250}
	assert.Equal(t, 750.0, trip.CapacityRemainingCuft())

	// Overbooked trips report zero, never negative.
	trip.CapacityUsedCuft = 1100
	assert.Equal(t, 0.0, trip.CapacityRemainingCuft())
}
