// internal/matching/context.go
// Builds the ephemeral MatchingContext a refresh scores against.

package matching

import (
	"context"
	"errors"

	"github.com/freightops/freightops-backend/internal/fleet"
)

type ContextBuilder struct {
	fleet fleet.Repository
}

func NewContextBuilder(fleetRepo fleet.Repository) *ContextBuilder {
	return &ContextBuilder{fleet: fleetRepo}
}

// Build resolves a trip into a MatchingContext. Read-only; the context is
// discarded after scoring. A trip that is missing or not owned by the caller
// yields ErrTripNotFound, and a trip with no undelivered destination yields
// ErrNoDestination because deadhead miles need a directional target.
func (b *ContextBuilder) Build(ctx context.Context, ownerID, tripID int64) (*MatchingContext, error) {
	trip, err := b.fleet.GetTrip(ctx, ownerID, tripID)
	if err != nil {
		if errors.Is(err, fleet.ErrTripNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	stops, err := b.fleet.GetTripDestinations(ctx, tripID)
	if err != nil {
		return nil, err
	}

	destinations := make([]Location, 0, len(stops))
	for _, stop := range stops {
		if stop.City == "" && stop.State == "" {
			continue
		}
		destinations = append(destinations, Location{
			City:  stop.City,
			State: stop.State,
			Lat:   stop.Lat,
			Lng:   stop.Lng,
		})
	}

	if len(destinations) == 0 {
		return nil, ErrNoDestination
	}

	return &MatchingContext{
		OwnerID:               trip.OwnerID,
		CompanyID:             trip.CompanyID,
		DriverID:              trip.DriverID,
		TripID:                trip.ID,
		DeliveryDestinations:  destinations,
		CapacityRemainingCuft: trip.CapacityRemainingCuft(),
	}, nil
}
