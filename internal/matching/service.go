// internal/matching/service.go

package matching

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freightops/freightops-backend/internal/common/logger"
	"github.com/freightops/freightops-backend/internal/fleet"
)

// Notifier is invoked after a suggestion is claimed. Delivery is
// fire-and-forget; failures never fail the transition.
type Notifier interface {
	SuggestionClaimed(ctx context.Context, suggestion *Suggestion) error
}

type Service interface {
	RefreshSuggestions(ctx context.Context, ownerID, tripID int64) (*RefreshResult, error)
	ListSuggestions(ctx context.Context, ownerID int64, tripID *int64, status string) ([]*Suggestion, error)
	ActionSuggestion(ctx context.Context, ownerID, suggestionID int64, action string) (*Suggestion, error)

	// RefreshAllActiveTrips is the scheduler entry point.
	RefreshAllActiveTrips(ctx context.Context) error
}

type service struct {
	repo           Repository
	fleet          fleet.Repository
	builder        *ContextBuilder
	engine         *ScoringEngine
	cache          *Cache
	notifier       Notifier
	candidateLimit int
	log            logger.Logger
	tripLocks      *keyedMutex
}

func NewService(repo Repository, fleetRepo fleet.Repository, engine *ScoringEngine, cache *Cache, notifier Notifier, candidateLimit int, log logger.Logger) Service {
	if candidateLimit <= 0 {
		candidateLimit = 200
	}
	return &service{
		repo:           repo,
		fleet:          fleetRepo,
		builder:        NewContextBuilder(fleetRepo),
		engine:         engine,
		cache:          cache,
		notifier:       notifier,
		candidateLimit: candidateLimit,
		log:            log,
		tripLocks:      newKeyedMutex(),
	}
}

// RefreshSuggestions recomputes and persists the candidate set for one trip.
// Scoring runs concurrently; the write phase is serialized per trip so two
// refreshes for the same trip cannot interleave upserts. Refreshing is
// idempotent, so a caller seeing a store error may simply retry.
func (s *service) RefreshSuggestions(ctx context.Context, ownerID, tripID int64) (*RefreshResult, error) {
	start := time.Now()
	batchID := uuid.NewString()

	mc, err := s.builder.Build(ctx, ownerID, tripID)
	if err != nil {
		RecordRefresh("rejected", time.Since(start))
		return nil, err
	}

	prefsRow, err := s.fleet.GetCompanyPreferences(ctx, mc.CompanyID)
	if err != nil {
		RecordRefresh("error", time.Since(start))
		return nil, err
	}
	prefs := NewPreferences(
		prefsRow.MinProfitPerMile, prefsRow.MaxDeadheadMiles, prefsRow.MinMatchScore,
		prefsRow.MinCapacityUtilization, prefsRow.MaxCapacityUtilization,
		prefsRow.PreferredReturnStates, prefsRow.ExcludedStates,
	)

	loads, err := s.fleet.FindOpenLoads(ctx, ownerID, tripID, prefs.ExcludedStates, s.candidateLimit)
	if err != nil {
		RecordRefresh("error", time.Since(start))
		return nil, err
	}

	scored := s.engine.ScoreCandidates(ctx, mc, prefs, loads)

	// A cancelled request abandons scoring above; never start the write
	// phase for it, so the batch is all-or-nothing.
	if err := ctx.Err(); err != nil {
		RecordRefresh("cancelled", time.Since(start))
		return nil, err
	}

	s.tripLocks.Lock(tripID)
	defer s.tripLocks.Unlock(tripID)

	count, err := s.upsertWithRetry(ctx, mc, scored)
	if err != nil {
		RecordRefresh("error", time.Since(start))
		return nil, err
	}

	for _, c := range scored {
		RecordMatchScore(c.MatchScore)
	}
	RecordSuggestionsWritten(count)
	RecordRefresh("success", time.Since(start))

	s.cache.InvalidateTrip(ctx, ownerID, tripID)

	s.log.Infow("suggestions refreshed", map[string]any{
		"batch_id":   batchID,
		"trip_id":    tripID,
		"candidates": len(loads),
		"written":    count,
	})

	return &RefreshResult{BatchID: batchID, Count: count, Suggestions: scored}, nil
}

// upsertWithRetry retries the whole batch once on transient store failures.
// The upsert transaction either commits fully or not at all, so the retry
// can never produce a half-written batch.
func (s *service) upsertWithRetry(ctx context.Context, mc *MatchingContext, scored []*ScoredCandidate) (int, error) {
	count, err := s.repo.UpsertSuggestions(ctx, mc, scored)
	if err != nil && isTransient(err) {
		s.log.Warnf("transient store error on suggestion batch, retrying once: %v", err)
		count, err = s.repo.UpsertSuggestions(ctx, mc, scored)
	}
	return count, err
}

func (s *service) ListSuggestions(ctx context.Context, ownerID int64, tripID *int64, status string) ([]*Suggestion, error) {
	if status == "" {
		status = StatusPending
	}

	if tripID != nil {
		if cached, ok := s.cache.GetSuggestionList(ctx, ownerID, *tripID, status); ok {
			return cached, nil
		}
	}

	suggestions, err := s.repo.ListSuggestions(ctx, ownerID, tripID, status)
	if err != nil {
		return nil, err
	}

	if tripID != nil {
		s.cache.SetSuggestionList(ctx, ownerID, *tripID, status, suggestions)
	}

	return suggestions, nil
}

func (s *service) ActionSuggestion(ctx context.Context, ownerID, suggestionID int64, action string) (*Suggestion, error) {
	suggestion, err := s.repo.GetSuggestion(ctx, ownerID, suggestionID)
	if err != nil {
		return nil, err
	}

	previousStatus := suggestion.Status
	changed, err := ApplyAction(suggestion, action, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !changed {
		return suggestion, nil
	}

	if err := s.repo.UpdateSuggestionStatus(ctx, suggestion, previousStatus); err != nil {
		if errors.Is(err, ErrAlreadyActioned) {
			// Lost the race to another action; hand back current state.
			return nil, err
		}
		return nil, err
	}

	RecordSuggestionAction(action)
	s.cache.InvalidateTrip(ctx, ownerID, suggestion.TripID)

	if suggestion.Status == StatusClaimed && s.notifier != nil {
		s.notifyClaimed(suggestion)
	}

	return suggestion, nil
}

// notifyClaimed dispatches the claimed notification in the background with
// its own deadline, detached from the request context.
func (s *service) notifyClaimed(suggestion *Suggestion) {
	claimed := *suggestion
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.notifier.SuggestionClaimed(ctx, &claimed); err != nil {
			s.log.Warnf("claimed notification for suggestion %d failed: %v", claimed.ID, err)
		}
	}()
}

// RefreshAllActiveTrips refreshes every active trip with open capacity.
// Trips without a destination are skipped quietly; they simply cannot be
// matched yet.
func (s *service) RefreshAllActiveTrips(ctx context.Context) error {
	trips, err := s.fleet.GetActiveTrips(ctx)
	if err != nil {
		return err
	}

	for _, trip := range trips {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := s.RefreshSuggestions(ctx, trip.OwnerID, trip.ID)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoDestination):
		default:
			s.log.Errorf("batch refresh failed for trip %d: %v", trip.ID, err)
		}
	}

	return nil
}

// keyedMutex serializes work per trip id without blocking unrelated trips.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*tripLock
}

type tripLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*tripLock)}
}

func (k *keyedMutex) Lock(key int64) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &tripLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
}

func (k *keyedMutex) Unlock(key int64) {
	k.mu.Lock()
	l := k.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	l.mu.Unlock()
}
