package matching

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *fakeSuggestionRepo) {
	t.Helper()

	svc, _, repo, _ := newTestService(t)
	handler := NewHandler(svc)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1/matching").Subrouter()
	api.HandleFunc("/trips/{tripId}/suggestions/refresh", handler.RefreshSuggestions).Methods("POST")
	api.HandleFunc("/suggestions", handler.ListSuggestions).Methods("GET")
	api.HandleFunc("/suggestions/{id}/action", handler.ActionSuggestion).Methods("POST")

	return router, repo
}

func doRequest(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req = req.WithContext(context.WithValue(req.Context(), "ownerID", int64(1)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEndpointsRequireOwnerInContext(t *testing.T) {
	router, _ := newTestRouter(t)

	// No ownerID in the request context: every endpoint must answer 401
	// instead of panicking.
	for _, tc := range []struct{ method, path, body string }{
		{"POST", "/api/v1/matching/trips/10/suggestions/refresh", ""},
		{"GET", "/api/v1/matching/suggestions", ""},
		{"POST", "/api/v1/matching/suggestions/1/action", `{"action":"viewed"}`},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRefreshSuggestionsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, "POST", "/api/v1/matching/trips/10/suggestions/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result RefreshResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Count)
	assert.NotEmpty(t, result.BatchID)
}

func TestRefreshSuggestionsEndpointUnknownTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, "POST", "/api/v1/matching/trips/999/suggestions/refresh", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshSuggestionsEndpointBadTripID(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, "POST", "/api/v1/matching/trips/abc/suggestions/refresh", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSuggestionsEndpointEmpty(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, "GET", "/api/v1/matching/suggestions?trip_id=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	// Empty result is an empty array, never null.
	assert.Equal(t, "[]", rec.Body.String())
}

func TestListSuggestionsEndpointInvalidStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, "GET", "/api/v1/matching/suggestions?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActionSuggestionEndpoint(t *testing.T) {
	router, repo := newTestRouter(t)

	rec := doRequest(router, "POST", "/api/v1/matching/trips/10/suggestions/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stored := repo.get(10, 100)

	rec = doRequest(router, "POST", "/api/v1/matching/suggestions/1/action", `{"action":"dismissed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, StatusDismissed, repo.get(10, 100).Status)
	assert.Equal(t, stored.ID, int64(1))

	// Conflicting follow-up action maps to 409.
	rec = doRequest(router, "POST", "/api/v1/matching/suggestions/1/action", `{"action":"claimed"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestActionSuggestionEndpointRejectsUnknownAction(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, "POST", "/api/v1/matching/suggestions/1/action", `{"action":"starred"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActionSuggestionEndpointNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, "POST", "/api/v1/matching/suggestions/404/action", `{"action":"viewed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
