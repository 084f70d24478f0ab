// internal/matching/models.go

package matching

import "time"

// Suggestion statuses. A suggestion starts pending and only ever moves forward.
const (
	StatusPending    = "pending"
	StatusViewed     = "viewed"
	StatusInterested = "interested"
	StatusDismissed  = "dismissed"
	StatusClaimed    = "claimed"
)

// Suggestion types describe why a load matched. The set is extensible; these
// are the ones the engine assigns today.
const (
	TypeReturnLane   = "return_lane"
	TypeOnRoute      = "on_route"
	TypeCapacityFill = "capacity_fill"
)

// Location is a point a load or trip references. Coordinates are optional;
// much of the board data only carries city and state.
type Location struct {
	City  string
	State string
	Lat   *float64
	Lng   *float64
}

// MatchingContext is assembled fresh for every refresh call and discarded
// after scoring. It is never persisted.
type MatchingContext struct {
	OwnerID               int64
	CompanyID             int64
	DriverID              int64
	TripID                int64
	DeliveryDestinations  []Location
	CapacityRemainingCuft float64
}

// Preferences drive candidate filtering and ranking. Build one with
// NewPreferences so defaults and clamping are applied exactly once.
type Preferences struct {
	MinProfitPerMile       float64
	MaxDeadheadMiles       float64
	MinMatchScore          float64
	MinCapacityUtilization float64
	MaxCapacityUtilization float64
	PreferredReturnStates  map[string]bool
	ExcludedStates         []string
}

// Preference defaults applied when a company has not configured a value.
const (
	defaultMinProfitPerMile       = 1.0
	defaultMaxDeadheadMiles       = 150
	defaultMinMatchScore          = 50
	defaultMinCapacityUtilization = 30
	defaultMaxCapacityUtilization = 100
)

// NewPreferences builds Preferences from a raw preference row, filling
// defaults for unset values. An inverted capacity utilization range is
// clamped rather than rejected.
func NewPreferences(minProfitPerMile, maxDeadheadMiles, minMatchScore, minCapUtil, maxCapUtil *float64, returnStates, excludedStates []string) *Preferences {
	p := &Preferences{
		MinProfitPerMile:       derefFloat(minProfitPerMile, defaultMinProfitPerMile),
		MaxDeadheadMiles:       derefFloat(maxDeadheadMiles, defaultMaxDeadheadMiles),
		MinMatchScore:          derefFloat(minMatchScore, defaultMinMatchScore),
		MinCapacityUtilization: derefFloat(minCapUtil, defaultMinCapacityUtilization),
		MaxCapacityUtilization: derefFloat(maxCapUtil, defaultMaxCapacityUtilization),
		PreferredReturnStates:  make(map[string]bool, len(returnStates)),
		ExcludedStates:         excludedStates,
	}

	if p.MinCapacityUtilization > p.MaxCapacityUtilization {
		p.MinCapacityUtilization = p.MaxCapacityUtilization
	}

	for _, state := range returnStates {
		p.PreferredReturnStates[normalizeState(state)] = true
	}

	return p
}

// Suggestion is a persisted, scored recommendation linking one trip to one
// candidate load. Identity is the (TripID, LoadID) pair.
type Suggestion struct {
	ID                    int64      `json:"id" db:"id"`
	OwnerID               int64      `json:"owner_id" db:"owner_id"`
	TripID                int64      `json:"trip_id" db:"trip_id"`
	LoadID                int64      `json:"load_id" db:"load_id"`
	SuggestionType        string     `json:"suggestion_type" db:"suggestion_type"`
	MatchScore            float64    `json:"match_score" db:"match_score"`
	ProfitEstimate        float64    `json:"profit_estimate" db:"profit_estimate"`
	ProfitPerMile         float64    `json:"profit_per_mile" db:"profit_per_mile"`
	DistanceToPickupMiles float64    `json:"distance_to_pickup_miles" db:"distance_to_pickup_miles"`
	CapacityFitPercent    float64    `json:"capacity_fit_percent" db:"capacity_fit_percent"`
	Status                string     `json:"status" db:"status"`
	ViewedAt              *time.Time `json:"viewed_at,omitempty" db:"viewed_at"`
	ActionedAt            *time.Time `json:"actioned_at,omitempty" db:"actioned_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// ScoredCandidate is the scoring engine's output for one surviving load.
type ScoredCandidate struct {
	LoadID                int64   `json:"load_id"`
	SuggestionType        string  `json:"suggestion_type"`
	MatchScore            float64 `json:"match_score"`
	ProfitEstimate        float64 `json:"profit_estimate"`
	ProfitPerMile         float64 `json:"profit_per_mile"`
	DistanceToPickupMiles float64 `json:"distance_to_pickup_miles"`
	CapacityFitPercent    float64 `json:"capacity_fit_percent"`
}

// RefreshResult is returned to the caller of a refresh.
type RefreshResult struct {
	BatchID     string             `json:"batch_id"`
	Count       int                `json:"count"`
	Suggestions []*ScoredCandidate `json:"suggestions"`
}

func derefFloat(f *float64, defaultValue float64) float64 {
	if f != nil {
		return *f
	}
	return defaultValue
}
