package matching

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/freightops/freightops-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RefreshSuggestions recomputes suggestions for a trip and returns the
// ranked result.
func (h *Handler) RefreshSuggestions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	vars := mux.Vars(r)
	tripID, err := strconv.ParseInt(vars["tripId"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	result, err := h.service.RefreshSuggestions(r.Context(), ownerID, tripID)
	if err != nil {
		respondWithMatchingError(w, err, "Failed to refresh suggestions")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

// ListSuggestions returns suggestions, optionally filtered by trip and
// status. Status defaults to pending; "all" disables the status filter.
func (h *Handler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	params := &ListSuggestionsParams{Status: StatusPending}

	if tripStr := r.URL.Query().Get("trip_id"); tripStr != "" {
		tripID, err := strconv.ParseInt(tripStr, 10, 64)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid trip_id")
			return
		}
		params.TripID = &tripID
	}

	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = status
	}

	if err := utils.ValidateStruct(params); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions, err := h.service.ListSuggestions(r.Context(), ownerID, params.TripID, params.Status)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get suggestions")
		return
	}
	if suggestions == nil {
		suggestions = []*Suggestion{}
	}

	utils.RespondWithJSON(w, http.StatusOK, suggestions)
}

// ActionSuggestion applies a lifecycle action to one suggestion.
func (h *Handler) ActionSuggestion(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	vars := mux.Vars(r)
	suggestionID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid suggestion ID")
		return
	}

	var dto ActionSuggestionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestion, err := h.service.ActionSuggestion(r.Context(), ownerID, suggestionID, dto.Action)
	if err != nil {
		respondWithMatchingError(w, err, "Failed to action suggestion")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, suggestion)
}

// ownerFromContext reads the owner id set by the auth middleware. A missing
// id means the route was reached without authentication.
func ownerFromContext(r *http.Request) (int64, bool) {
	ownerID, ok := r.Context().Value("ownerID").(int64)
	return ownerID, ok
}

func respondWithMatchingError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrTripNotFound), errors.Is(err, ErrSuggestionNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNoDestination):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInvalidAction):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyActioned):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
