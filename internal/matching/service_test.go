package matching

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightops/freightops-backend/internal/common/logger"
	"github.com/freightops/freightops-backend/internal/fleet"
)

// fakeFleetRepo serves canned operational data.
type fakeFleetRepo struct {
	trips map[int64]*fleet.Trip
	stops map[int64][]*fleet.TripStop
	loads []*fleet.Load
	prefs *fleet.CompanyPreferences
}

func (f *fakeFleetRepo) GetTrip(ctx context.Context, ownerID, tripID int64) (*fleet.Trip, error) {
	trip, ok := f.trips[tripID]
	if !ok || trip.OwnerID != ownerID {
		return nil, fleet.ErrTripNotFound
	}
	return trip, nil
}

func (f *fakeFleetRepo) GetTripDestinations(ctx context.Context, tripID int64) ([]*fleet.TripStop, error) {
	return f.stops[tripID], nil
}

func (f *fakeFleetRepo) GetActiveTrips(ctx context.Context) ([]*fleet.Trip, error) {
	trips := make([]*fleet.Trip, 0, len(f.trips))
	for _, t := range f.trips {
		trips = append(trips, t)
	}
	return trips, nil
}

func (f *fakeFleetRepo) FindOpenLoads(ctx context.Context, ownerID, tripID int64, excludedStates []string, limit int) ([]*fleet.Load, error) {
	return f.loads, nil
}

func (f *fakeFleetRepo) GetCompanyPreferences(ctx context.Context, companyID int64) (*fleet.CompanyPreferences, error) {
	if f.prefs != nil {
		return f.prefs, nil
	}
	return &fleet.CompanyPreferences{CompanyID: companyID}, nil
}

// fakeSuggestionRepo is an in-memory store with the same write semantics as
// the Postgres one: conflict updates touch score fields only, and status
// updates carry a previous-status precondition.
type fakeSuggestionRepo struct {
	mu          sync.Mutex
	nextID      int64
	byKey       map[[2]int64]*Suggestion
	failUpserts int
}

func newFakeSuggestionRepo() *fakeSuggestionRepo {
	return &fakeSuggestionRepo{byKey: make(map[[2]int64]*Suggestion)}
}

func (f *fakeSuggestionRepo) UpsertSuggestions(ctx context.Context, mc *MatchingContext, scored []*ScoredCandidate) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failUpserts > 0 {
		f.failUpserts--
		return 0, &pq.Error{Code: "40001"}
	}

	now := time.Now().UTC()
	for _, c := range scored {
		key := [2]int64{mc.TripID, c.LoadID}
		if existing, ok := f.byKey[key]; ok {
			existing.SuggestionType = c.SuggestionType
			existing.MatchScore = c.MatchScore
			existing.ProfitEstimate = c.ProfitEstimate
			existing.ProfitPerMile = c.ProfitPerMile
			existing.DistanceToPickupMiles = c.DistanceToPickupMiles
			existing.CapacityFitPercent = c.CapacityFitPercent
			existing.UpdatedAt = now
			continue
		}

		f.nextID++
		f.byKey[key] = &Suggestion{
			ID:                    f.nextID,
			OwnerID:               mc.OwnerID,
			TripID:                mc.TripID,
			LoadID:                c.LoadID,
			SuggestionType:        c.SuggestionType,
			MatchScore:            c.MatchScore,
			ProfitEstimate:        c.ProfitEstimate,
			ProfitPerMile:         c.ProfitPerMile,
			DistanceToPickupMiles: c.DistanceToPickupMiles,
			CapacityFitPercent:    c.CapacityFitPercent,
			Status:                StatusPending,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
	}

	return len(scored), nil
}

func (f *fakeSuggestionRepo) ListSuggestions(ctx context.Context, ownerID int64, tripID *int64, status string) ([]*Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*Suggestion
	for _, s := range f.byKey {
		if s.OwnerID != ownerID {
			continue
		}
		if tripID != nil && s.TripID != *tripID {
			continue
		}
		if status != "" && status != "all" && s.Status != status {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeSuggestionRepo) GetSuggestion(ctx context.Context, ownerID, suggestionID int64) (*Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.byKey {
		if s.ID == suggestionID && s.OwnerID == ownerID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, ErrSuggestionNotFound
}

func (f *fakeSuggestionRepo) UpdateSuggestionStatus(ctx context.Context, s *Suggestion, expectedStatus string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.byKey[[2]int64{s.TripID, s.LoadID}]
	if !ok || stored.Status != expectedStatus {
		return ErrAlreadyActioned
	}

	stored.Status = s.Status
	if stored.ViewedAt == nil {
		stored.ViewedAt = s.ViewedAt
	}
	stored.ActionedAt = s.ActionedAt
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeSuggestionRepo) get(tripID, loadID int64) *Suggestion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byKey[[2]int64{tripID, loadID}]
}

type fakeNotifier struct {
	claimed chan *Suggestion
}

func (f *fakeNotifier) SuggestionClaimed(ctx context.Context, s *Suggestion) error {
	f.claimed <- s
	return nil
}

func newTestService(t *testing.T) (Service, *fakeFleetRepo, *fakeSuggestionRepo, *fakeNotifier) {
	t.Helper()

	fleetRepo := &fakeFleetRepo{
		trips: map[int64]*fleet.Trip{
			10: {ID: 10, OwnerID: 1, CompanyID: 1, Status: "active", CapacityCuft: 1000, CapacityUsedCuft: 200},
		},
		stops: map[int64][]*fleet.TripStop{
			10: {{TripID: 10, City: "Denver", State: "CO", Lat: ptr(39.7392), Lng: ptr(-104.9903)}},
		},
		loads: []*fleet.Load{auroraLoad()},
	}

	repo := newFakeSuggestionRepo()
	notifier := &fakeNotifier{claimed: make(chan *Suggestion, 1)}
	svc := NewService(repo, fleetRepo, testEngine(), NewCache(nil, 0), notifier, 200, logger.Nop())

	return svc, fleetRepo, repo, notifier
}

func TestRefreshSuggestionsWritesBatch(t *testing.T) {
	svc, _, repo, _ := newTestService(t)

	result, err := svc.RefreshSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Suggestions, 1)

	stored := repo.get(10, 100)
	require.NotNil(t, stored)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, TypeOnRoute, stored.SuggestionType)
}

func TestRefreshSuggestionsIncludesOversizedLoads(t *testing.T) {
	svc, fleetRepo, repo, _ := newTestService(t)

	// Bigger than the trip's 800 cuft of open capacity. Oversized loads stay
	// in the candidate set and score with their fit capped at 100%.
	oversized := auroraLoad()
	oversized.ID = 200
	oversized.CubicFeet = 1200
	fleetRepo.loads = []*fleet.Load{oversized}

	result, err := svc.RefreshSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)

	stored := repo.get(10, 200)
	require.NotNil(t, stored)
	assert.Equal(t, 100.0, stored.CapacityFitPercent)
}

func TestRefreshSuggestionsIsIdempotent(t *testing.T) {
	svc, _, repo, _ := newTestService(t)

	_, err := svc.RefreshSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)
	first := *repo.get(10, 100)

	_, err = svc.RefreshSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)
	second := repo.get(10, 100)

	assert.Equal(t, first.ID, second.ID, "re-refresh must update in place, not duplicate")
	assert.Equal(t, first.MatchScore, second.MatchScore)
}

func TestRefreshSuggestionsPreservesHumanStatus(t *testing.T) {
	svc, fleetRepo, repo, _ := newTestService(t)

	_, err := svc.RefreshSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)

	stored := *repo.get(10, 100)
	_, err = svc.ActionSuggestion(context.Background(), 1, stored.ID, ActionDismissed)
	require.NoError(t, err)

	// Rates move between refreshes; the dismissal must survive the rescore.
	fleetRepo.loads[0].TotalRate = 3000
	_, err = svc.RefreshSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)

	refreshed := repo.get(10, 100)
	assert.Equal(t, StatusDismissed, refreshed.Status)
	assert.NotNil(t, refreshed.ActionedAt)
	assert.Greater(t, refreshed.ProfitEstimate, stored.ProfitEstimate)
}

func TestRefreshSuggestionsTripNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.RefreshSuggestions(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrTripNotFound)

	// Owned by someone else looks identical to missing.
	_, err = svc.RefreshSuggestions(context.Background(), 2, 10)
	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestRefreshSuggestionsNoDestination(t *testing.T) {
	svc, fleetRepo, _, _ := newTestService(t)
	fleetRepo.stops[10] = []*fleet.TripStop{{TripID: 10, City: "", State: ""}}

	_, err := svc.RefreshSuggestions(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrNoDestination)
}

func TestRefreshSuggestionsRetriesTransientError(t *testing.T) {
	svc, _, repo, _ := newTestService(t)
	repo.failUpserts = 1

	result, err := svc.RefreshSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
}

func TestActionSuggestionClaimedNotifies(t *testing.T) {
	svc, _, repo, notifier := newTestService(t)

	_, err := svc.RefreshSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)
	stored := repo.get(10, 100)

	updated, err := svc.ActionSuggestion(context.Background(), 1, stored.ID, ActionClaimed)
	require.NoError(t, err)
	assert.Equal(t, StatusClaimed, updated.Status)

	select {
	case claimed := <-notifier.claimed:
		assert.Equal(t, stored.ID, claimed.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("claimed notification never dispatched")
	}
}

func TestActionSuggestionIdempotentRepeat(t *testing.T) {
	svc, _, repo, notifier := newTestService(t)

	_, err := svc.RefreshSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)
	stored := repo.get(10, 100)

	first, err := svc.ActionSuggestion(context.Background(), 1, stored.ID, ActionDismissed)
	require.NoError(t, err)

	second, err := svc.ActionSuggestion(context.Background(), 1, stored.ID, ActionDismissed)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.ActionedAt.Unix(), second.ActionedAt.Unix())

	// A different action on a terminal suggestion is a conflict.
	_, err = svc.ActionSuggestion(context.Background(), 1, stored.ID, ActionClaimed)
	assert.ErrorIs(t, err, ErrAlreadyActioned)

	select {
	case <-notifier.claimed:
		t.Fatal("dismissed suggestion must not notify")
	default:
	}
}

func TestActionSuggestionNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.ActionSuggestion(context.Background(), 1, 404, ActionViewed)
	assert.ErrorIs(t, err, ErrSuggestionNotFound)
}

func TestActionSuggestionInvalidToken(t *testing.T) {
	svc, _, repo, _ := newTestService(t)

	_, err := svc.RefreshSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)
	stored := repo.get(10, 100)

	_, err = svc.ActionSuggestion(context.Background(), 1, stored.ID, "bookmarked")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestListSuggestionsDefaultsToPending(t *testing.T) {
	svc, _, repo, _ := newTestService(t)

	_, err := svc.RefreshSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)
	stored := repo.get(10, 100)

	tripID := int64(10)
	pending, err := svc.ListSuggestions(context.Background(), 1, &tripID, "")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = svc.ActionSuggestion(context.Background(), 1, stored.ID, ActionDismissed)
	require.NoError(t, err)

	pending, err = svc.ListSuggestions(context.Background(), 1, &tripID, "")
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := svc.ListSuggestions(context.Background(), 1, &tripID, "all")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRefreshAllActiveTrips(t *testing.T) {
	svc, fleetRepo, repo, _ := newTestService(t)

	// A second active trip with no destination yet must not fail the batch.
	fleetRepo.trips[20] = &fleet.Trip{ID: 20, OwnerID: 1, CompanyID: 1, Status: "active", CapacityCuft: 500}

	err := svc.RefreshAllActiveTrips(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, repo.get(10, 100))
	assert.Nil(t, repo.get(20, 100))
}
