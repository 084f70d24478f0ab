// internal/fleet/models.go
// Read-only projections of the operational data the matching engine consumes.
// CRUD over these entities lives in the managed store, not here.

package fleet

import "time"

// Trip is a driver's planned route with open capacity
type Trip struct {
	ID               int64     `json:"id" db:"id"`
	OwnerID          int64     `json:"owner_id" db:"owner_id"`
	CompanyID        int64     `json:"company_id" db:"company_id"`
	DriverID         int64     `json:"driver_id" db:"driver_id"`
	Status           string    `json:"status" db:"status"`
	OriginCity       string    `json:"origin_city" db:"origin_city"`
	OriginState      string    `json:"origin_state" db:"origin_state"`
	CapacityCuft     float64   `json:"capacity_cuft" db:"capacity_cuft"`
	CapacityUsedCuft float64   `json:"capacity_used_cuft" db:"capacity_used_cuft"`
	DepartureDate    time.Time `json:"departure_date" db:"departure_date"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// CapacityRemainingCuft returns the open cubic footage on the trip, never negative.
func (t *Trip) CapacityRemainingCuft() float64 {
	remaining := t.CapacityCuft - t.CapacityUsedCuft
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TripStop is one delivery destination on a trip's route
type TripStop struct {
	ID        int64    `json:"id" db:"id"`
	TripID    int64    `json:"trip_id" db:"trip_id"`
	StopOrder int      `json:"stop_order" db:"stop_order"`
	City      string   `json:"city" db:"city"`
	State     string   `json:"state" db:"state"`
	Lat       *float64 `json:"lat,omitempty" db:"lat"`
	Lng       *float64 `json:"lng,omitempty" db:"lng"`
	Delivered bool     `json:"delivered" db:"delivered"`
}

// Load is a postable load visible on the board
type Load struct {
	ID            int64      `json:"id" db:"id"`
	OwnerID       int64      `json:"owner_id" db:"owner_id"`
	CompanyID     int64      `json:"company_id" db:"company_id"`
	Status        string     `json:"status" db:"status"`
	PostingType   string     `json:"posting_type" db:"posting_type"`
	PickupCity    string     `json:"pickup_city" db:"pickup_city"`
	PickupState   string     `json:"pickup_state" db:"pickup_state"`
	PickupLat     *float64   `json:"pickup_lat,omitempty" db:"pickup_lat"`
	PickupLng     *float64   `json:"pickup_lng,omitempty" db:"pickup_lng"`
	DeliveryCity  string     `json:"delivery_city" db:"delivery_city"`
	DeliveryState string     `json:"delivery_state" db:"delivery_state"`
	DeliveryLat   *float64   `json:"delivery_lat,omitempty" db:"delivery_lat"`
	DeliveryLng   *float64   `json:"delivery_lng,omitempty" db:"delivery_lng"`
	CubicFeet     float64    `json:"cubic_feet" db:"cubic_feet"`
	TotalRate     float64    `json:"total_rate" db:"total_rate"`
	RatePerCuft   *float64   `json:"rate_per_cuft,omitempty" db:"rate_per_cuft"`
	BalanceDue    *float64   `json:"balance_due,omitempty" db:"balance_due"`
	PickupDate    *time.Time `json:"pickup_date,omitempty" db:"pickup_date"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// CompanyPreferences is the raw preference row owned by a company. Defaulting
// and clamping happen in the matching module, not at read sites.
type CompanyPreferences struct {
	CompanyID              int64    `json:"company_id" db:"company_id"`
	MinProfitPerMile       *float64 `json:"min_profit_per_mile,omitempty" db:"min_profit_per_mile"`
	MaxDeadheadMiles       *float64 `json:"max_deadhead_miles,omitempty" db:"max_deadhead_miles"`
	MinMatchScore          *float64 `json:"min_match_score,omitempty" db:"min_match_score"`
	MinCapacityUtilization *float64 `json:"min_capacity_utilization,omitempty" db:"min_capacity_utilization"`
	MaxCapacityUtilization *float64 `json:"max_capacity_utilization,omitempty" db:"max_capacity_utilization"`
	PreferredReturnStates  []string `json:"preferred_return_states"`
	ExcludedStates         []string `json:"excluded_states"`
}
