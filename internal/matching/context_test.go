package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightops/freightops-backend/internal/fleet"
)

func TestContextBuilderBuild(t *testing.T) {
	fleetRepo := &fakeFleetRepo{
		trips: map[int64]*fleet.Trip{
			10: {ID: 10, OwnerID: 1, CompanyID: 5, DriverID: 7, CapacityCuft: 1000, CapacityUsedCuft: 300},
		},
		stops: map[int64][]*fleet.TripStop{
			10: {
				{TripID: 10, City: "Denver", State: "CO"},
				{TripID: 10, City: "", State: ""}, // incomplete stop, skipped
				{TripID: 10, City: "", State: "NM"},
			},
		},
	}
	builder := NewContextBuilder(fleetRepo)

	mc, err := builder.Build(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(1), mc.OwnerID)
	assert.Equal(t, int64(5), mc.CompanyID)
	assert.Equal(t, int64(7), mc.DriverID)
	assert.Equal(t, 700.0, mc.CapacityRemainingCuft)
	require.Len(t, mc.DeliveryDestinations, 2)
	assert.Equal(t, "Denver", mc.DeliveryDestinations[0].City)
	assert.Equal(t, "NM", mc.DeliveryDestinations[1].State)
}

func TestContextBuilderTripNotFound(t *testing.T) {
	builder := NewContextBuilder(&fakeFleetRepo{trips: map[int64]*fleet.Trip{}})

	_, err := builder.Build(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestContextBuilderNoDestination(t *testing.T) {
	fleetRepo := &fakeFleetRepo{
		trips: map[int64]*fleet.Trip{10: {ID: 10, OwnerID: 1}},
		stops: map[int64][]*fleet.TripStop{},
	}
	builder := NewContextBuilder(fleetRepo)

	_, err := builder.Build(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrNoDestination)
}

func TestContextBuilderOverbookedCapacityClampsToZero(t *testing.T) {
	fleetRepo := &fakeFleetRepo{
		trips: map[int64]*fleet.Trip{
			10: {ID: 10, OwnerID: 1, CapacityCuft: 500, CapacityUsedCuft: 600},
		},
		stops: map[int64][]*fleet.TripStop{
			10: {{TripID: 10, City: "Denver", State: "CO"}},
		},
	}
	builder := NewContextBuilder(fleetRepo)

	mc, err := builder.Build(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, mc.CapacityRemainingCuft)
}
