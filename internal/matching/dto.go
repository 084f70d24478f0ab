// internal/matching/dto.go
package matching

// DTOs for API requests

type ActionSuggestionDTO struct {
	Action string `json:"action" validate:"required,oneof=viewed interested dismissed claimed"`
}

type ListSuggestionsParams struct {
	TripID *int64 `json:"trip_id,omitempty"`
	Status string `json:"status" validate:"omitempty,oneof=pending viewed interested dismissed claimed all"`
}
