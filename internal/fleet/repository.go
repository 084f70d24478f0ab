// internal/fleet/repository.go

package fleet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrTripNotFound = errors.New("trip not found")

type Repository interface {
	// Trips
	GetTrip(ctx context.Context, ownerID, tripID int64) (*Trip, error)
	GetTripDestinations(ctx context.Context, tripID int64) ([]*TripStop, error)
	GetActiveTrips(ctx context.Context) ([]*Trip, error)

	// Loads
	FindOpenLoads(ctx context.Context, ownerID, tripID int64, excludedStates []string, limit int) ([]*Load, error)

	// Preferences
	GetCompanyPreferences(ctx context.Context, companyID int64) (*CompanyPreferences, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetTrip(ctx context.Context, ownerID, tripID int64) (*Trip, error) {
	var trip Trip
	query := `
        SELECT id, owner_id, company_id, driver_id, status,
               origin_city, origin_state, capacity_cuft, capacity_used_cuft,
               departure_date, created_at, updated_at
        FROM trips
        WHERE id = $1 AND owner_id = $2
    `

	err := r.db.GetContext(ctx, &trip, query, tripID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}

	return &trip, nil
}

func (r *postgresRepository) GetTripDestinations(ctx context.Context, tripID int64) ([]*TripStop, error) {
	var stops []*TripStop
	query := `
        SELECT id, trip_id, stop_order, city, state, lat, lng, delivered
        FROM trip_stops
        WHERE trip_id = $1 AND delivered = FALSE
        ORDER BY stop_order ASC
    `

	err := r.db.SelectContext(ctx, &stops, query, tripID)
	if err != nil {
		return nil, err
	}

	return stops, nil
}

func (r *postgresRepository) GetActiveTrips(ctx context.Context) ([]*Trip, error) {
	var trips []*Trip
	query := `
        SELECT id, owner_id, company_id, driver_id, status,
               origin_city, origin_state, capacity_cuft, capacity_used_cuft,
               departure_date, created_at, updated_at
        FROM trips
        WHERE status IN ('planned', 'in_progress')
          AND capacity_cuft > capacity_used_cuft
        ORDER BY departure_date ASC
    `

	err := r.db.SelectContext(ctx, &trips, query)
	if err != nil {
		return nil, err
	}

	return trips, nil
}

// FindOpenLoads returns postable loads visible to the owner. Excluded states
// and already-claimed loads are filtered here in SQL to bound the candidate
// set before scoring. Capacity is deliberately not filtered here: oversized
// loads are still candidates (the engine caps their fit at 100%).
func (r *postgresRepository) FindOpenLoads(ctx context.Context, ownerID, tripID int64, excludedStates []string, limit int) ([]*Load, error) {
	var loads []*Load
	query := `
        SELECT l.id, l.owner_id, l.company_id, l.status, l.posting_type,
               l.pickup_city, l.pickup_state, l.pickup_lat, l.pickup_lng,
               l.delivery_city, l.delivery_state, l.delivery_lat, l.delivery_lng,
               l.cubic_feet, l.total_rate, l.rate_per_cuft, l.balance_due,
               l.pickup_date, l.created_at
        FROM loads l
        WHERE l.owner_id = $1
          AND l.status = 'open'
          AND l.posting_type IN ('load_board', 'partner')
          AND NOT (l.pickup_state = ANY($3) OR l.delivery_state = ANY($3))
          AND NOT EXISTS (
              SELECT 1 FROM suggestions s
              WHERE s.trip_id = $2 AND s.load_id = l.id AND s.status = 'claimed'
          )
          AND NOT EXISTS (
              SELECT 1 FROM load_assignments a
              WHERE a.load_id = l.id AND a.released_at IS NULL
          )
        ORDER BY l.created_at DESC
        LIMIT $4
    `

	if excludedStates == nil {
		excludedStates = []string{}
	}

	err := r.db.SelectContext(ctx, &loads, query, ownerID, tripID, pq.Array(excludedStates), limit)
	if err != nil {
		return nil, err
	}

	return loads, nil
}

func (r *postgresRepository) GetCompanyPreferences(ctx context.Context, companyID int64) (*CompanyPreferences, error) {
	var prefs CompanyPreferences
	var returnStates, excluded pq.StringArray
	query := `
        SELECT company_id, min_profit_per_mile, max_deadhead_miles, min_match_score,
               min_capacity_utilization, max_capacity_utilization,
               COALESCE(preferred_return_states, '{}'), COALESCE(excluded_states, '{}')
        FROM company_preferences
        WHERE company_id = $1
    `

	err := r.db.QueryRowxContext(ctx, query, companyID).Scan(
		&prefs.CompanyID, &prefs.MinProfitPerMile, &prefs.MaxDeadheadMiles,
		&prefs.MinMatchScore, &prefs.MinCapacityUtilization, &prefs.MaxCapacityUtilization,
		&returnStates, &excluded,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// No row means the company runs on defaults
		return &CompanyPreferences{CompanyID: companyID}, nil
	}
	if err != nil {
		return nil, err
	}

	prefs.PreferredReturnStates = returnStates
	prefs.ExcludedStates = excluded

	return &prefs, nil
}
