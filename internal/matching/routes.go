package matching

import (
	"github.com/gorilla/mux"

	"github.com/freightops/freightops-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/matching").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Refresh
	api.HandleFunc("/trips/{tripId}/suggestions/refresh", handler.RefreshSuggestions).Methods("POST")

	// Suggestions
	api.HandleFunc("/suggestions", handler.ListSuggestions).Methods("GET")
	api.HandleFunc("/suggestions/{id}/action", handler.ActionSuggestion).Methods("POST")
}
