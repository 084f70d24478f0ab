// internal/matching/repository.go

package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	// UpsertSuggestions writes one refresh batch atomically, keyed by
	// (trip_id, load_id). Existing rows get fresh score fields only; status
	// and its timestamps are never touched by a refresh.
	UpsertSuggestions(ctx context.Context, mc *MatchingContext, scored []*ScoredCandidate) (int, error)

	ListSuggestions(ctx context.Context, ownerID int64, tripID *int64, status string) ([]*Suggestion, error)
	GetSuggestion(ctx context.Context, ownerID, suggestionID int64) (*Suggestion, error)

	// UpdateSuggestionStatus persists a lifecycle transition with a
	// first-writer-wins precondition on the previous status.
	UpdateSuggestionStatus(ctx context.Context, s *Suggestion, expectedStatus string) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const suggestionColumns = `
    id, owner_id, trip_id, load_id, suggestion_type, match_score,
    profit_estimate, profit_per_mile, distance_to_pickup_miles,
    capacity_fit_percent, status, viewed_at, actioned_at, created_at, updated_at
`

func (r *postgresRepository) UpsertSuggestions(ctx context.Context, mc *MatchingContext, scored []*ScoredCandidate) (int, error) {
	if len(scored) == 0 {
		return 0, nil
	}

	// One transaction per refresh batch so a concurrent reader never sees a
	// half-updated score set for the trip.
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// The conflict branch deliberately omits status, viewed_at and
	// actioned_at: human interaction state is sticky across refreshes.
	query := `
        INSERT INTO suggestions (
            owner_id, trip_id, load_id, suggestion_type, match_score,
            profit_estimate, profit_per_mile, distance_to_pickup_miles,
            capacity_fit_percent, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending')
        ON CONFLICT (trip_id, load_id)
        DO UPDATE SET
            suggestion_type = EXCLUDED.suggestion_type,
            match_score = EXCLUDED.match_score,
            profit_estimate = EXCLUDED.profit_estimate,
            profit_per_mile = EXCLUDED.profit_per_mile,
            distance_to_pickup_miles = EXCLUDED.distance_to_pickup_miles,
            capacity_fit_percent = EXCLUDED.capacity_fit_percent,
            updated_at = CURRENT_TIMESTAMP
    `

	for _, c := range scored {
		if _, err := tx.ExecContext(
			ctx, query,
			mc.OwnerID, mc.TripID, c.LoadID, c.SuggestionType, c.MatchScore,
			c.ProfitEstimate, c.ProfitPerMile, c.DistanceToPickupMiles,
			c.CapacityFitPercent,
		); err != nil {
			return 0, fmt.Errorf("upsert suggestion for load %d: %w", c.LoadID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return len(scored), nil
}

func (r *postgresRepository) ListSuggestions(ctx context.Context, ownerID int64, tripID *int64, status string) ([]*Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE owner_id = $1`
	args := []interface{}{ownerID}

	if tripID != nil {
		args = append(args, *tripID)
		query += fmt.Sprintf(" AND trip_id = $%d", len(args))
	}
	if status != "" && status != "all" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY match_score DESC, profit_per_mile DESC, distance_to_pickup_miles ASC"

	var suggestions []*Suggestion
	if err := r.db.SelectContext(ctx, &suggestions, query, args...); err != nil {
		return nil, err
	}

	return suggestions, nil
}

func (r *postgresRepository) GetSuggestion(ctx context.Context, ownerID, suggestionID int64) (*Suggestion, error) {
	var s Suggestion
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE id = $1 AND owner_id = $2`

	err := r.db.GetContext(ctx, &s, query, suggestionID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSuggestionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *postgresRepository) UpdateSuggestionStatus(ctx context.Context, s *Suggestion, expectedStatus string) error {
	// The WHERE clause on the previous status is the conditional-update
	// guard: if a concurrent action won, zero rows match and the caller
	// re-reads instead of clobbering.
	query := `
        UPDATE suggestions
        SET status = $2,
            viewed_at = COALESCE(viewed_at, $3),
            actioned_at = $4,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $1 AND status = $5
    `

	res, err := r.db.ExecContext(ctx, query, s.ID, s.Status, s.ViewedAt, s.ActionedAt, expectedStatus)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyActioned
	}

	return nil
}
