// internal/matching/scoring.go
// Scores candidate loads against a trip's matching context.
// Pure computation; the only side effects are log warnings and metrics.

package matching

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/freightops/freightops-backend/internal/common/logger"
	"github.com/freightops/freightops-backend/internal/config"
	"github.com/freightops/freightops-backend/internal/fleet"
)

// ScoreWeights blend the component scores into the composite 0-100 match
// score. They are deployment policy; only the resulting ordering guarantee
// (score desc, profit/mile desc, deadhead asc) is contractual.
type ScoreWeights struct {
	Profit     float64
	Distance   float64
	Capacity   float64
	Preference float64
}

// DefaultScoreWeights returns the shipped policy: profitability dominates,
// then deadhead, then capacity fit, then the return-state bonus.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Profit:     0.40,
		Distance:   0.30,
		Capacity:   0.20,
		Preference: 0.10,
	}
}

type ScoringEngine struct {
	weights               ScoreWeights
	costPerMile           float64
	profitPerMileCeiling  float64
	onRouteThresholdMiles float64
	maxWorkers            int
	log                   logger.Logger
}

func NewScoringEngine(cfg config.MatchingConfig, log logger.Logger) *ScoringEngine {
	weights := ScoreWeights{
		Profit:     cfg.ProfitWeight,
		Distance:   cfg.DistanceWeight,
		Capacity:   cfg.CapacityWeight,
		Preference: cfg.PreferenceWeight,
	}
	if weights.Profit+weights.Distance+weights.Capacity+weights.Preference <= 0 {
		weights = DefaultScoreWeights()
	}

	maxWorkers := cfg.MaxScoringWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	return &ScoringEngine{
		weights:               weights,
		costPerMile:           cfg.CostPerMile,
		profitPerMileCeiling:  cfg.ProfitPerMileCeiling,
		onRouteThresholdMiles: cfg.OnRouteThresholdMiles,
		maxWorkers:            maxWorkers,
		log:                   log,
	}
}

// ScoreCandidates scores every candidate concurrently, drops the ones that
// fail a hard filter, and returns survivors ranked. Scoring one candidate is
// pure, so the work fans out across a bounded worker pool and joins before
// the caller's write phase. Cancelling ctx abandons unscored candidates.
func (e *ScoringEngine) ScoreCandidates(ctx context.Context, mc *MatchingContext, prefs *Preferences, loads []*fleet.Load) []*ScoredCandidate {
	if len(loads) == 0 || ctx.Err() != nil {
		return nil
	}

	workers := e.maxWorkers
	if workers > len(loads) {
		workers = len(loads)
	}

	results := make([]*ScoredCandidate, len(loads))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.scoreCandidate(mc, prefs, loads[i])
			}
		}()
	}

	for i := range loads {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil
		}
	}
	close(jobs)
	wg.Wait()

	scored := make([]*ScoredCandidate, 0, len(loads))
	for _, c := range results {
		if c != nil {
			scored = append(scored, c)
		}
	}

	rankCandidates(scored)
	return scored
}

// scoreCandidate computes distance, capacity fit, profit, and the composite
// score for one load. A nil return means the candidate was filtered out or
// was malformed; malformed candidates never abort the batch.
func (e *ScoringEngine) scoreCandidate(mc *MatchingContext, prefs *Preferences, load *fleet.Load) *ScoredCandidate {
	if load.TotalRate <= 0 {
		e.log.Warnw("skipping candidate with no usable rate", map[string]any{
			"load_id": load.ID, "trip_id": mc.TripID,
		})
		RecordCandidateSkipped("malformed")
		return nil
	}

	pickup := Location{City: load.PickupCity, State: load.PickupState, Lat: load.PickupLat, Lng: load.PickupLng}
	delivery := Location{City: load.DeliveryCity, State: load.DeliveryState, Lat: load.DeliveryLat, Lng: load.DeliveryLng}

	deadhead := e.distanceToPickup(mc, pickup)
	if deadhead >= UnknownDistanceMiles {
		e.log.Warnw("skipping candidate with unresolvable pickup geography", map[string]any{
			"load_id": load.ID, "trip_id": mc.TripID,
			"pickup": load.PickupCity + ", " + load.PickupState,
		})
		RecordCandidateSkipped("malformed")
		return nil
	}
	if deadhead > prefs.MaxDeadheadMiles {
		RecordCandidateSkipped("deadhead")
		return nil
	}

	if mc.CapacityRemainingCuft <= 0 {
		RecordCandidateSkipped("capacity")
		return nil
	}
	capacityFit := math.Min(100, load.CubicFeet/mc.CapacityRemainingCuft*100)
	if capacityFit < prefs.MinCapacityUtilization || capacityFit > prefs.MaxCapacityUtilization {
		RecordCandidateSkipped("capacity")
		return nil
	}

	haulMiles := Distance(pickup, delivery)
	if haulMiles >= UnknownDistanceMiles {
		e.log.Warnw("skipping candidate with unresolvable haul geography", map[string]any{
			"load_id": load.ID, "trip_id": mc.TripID,
			"pickup":   load.PickupCity + ", " + load.PickupState,
			"delivery": load.DeliveryCity + ", " + load.DeliveryState,
		})
		RecordCandidateSkipped("malformed")
		return nil
	}

	totalMiles := deadhead + haulMiles
	profitEstimate := load.TotalRate - e.costPerMile*totalMiles
	profitPerMile := profitEstimate / math.Max(1, totalMiles)
	if profitPerMile < prefs.MinProfitPerMile {
		RecordCandidateSkipped("profit")
		return nil
	}

	returnLane := prefs.PreferredReturnStates[normalizeState(load.DeliveryState)]
	score := e.compositeScore(profitPerMile, deadhead, capacityFit, returnLane, prefs)
	if score < prefs.MinMatchScore {
		RecordCandidateSkipped("score")
		return nil
	}

	return &ScoredCandidate{
		LoadID:                load.ID,
		SuggestionType:        e.suggestionType(deadhead, returnLane),
		MatchScore:            score,
		ProfitEstimate:        round2(profitEstimate),
		ProfitPerMile:         round2(profitPerMile),
		DistanceToPickupMiles: round2(deadhead),
		CapacityFitPercent:    round2(capacityFit),
	}
}

// distanceToPickup is the deadhead from the trip's route to the load's
// pickup: the minimum over the trip's remaining delivery destinations, so a
// load picked up near any planned stop counts as close.
func (e *ScoringEngine) distanceToPickup(mc *MatchingContext, pickup Location) float64 {
	best := math.Inf(1)
	for _, dest := range mc.DeliveryDestinations {
		if d := Distance(dest, pickup); d < best {
			best = d
		}
	}
	return best
}

// compositeScore blends normalized profit per mile, inverse-normalized
// deadhead, capacity fit closeness to 100%, and the return-state bonus into
// a 0-100 value.
func (e *ScoringEngine) compositeScore(profitPerMile, deadhead, capacityFit float64, returnLane bool, prefs *Preferences) float64 {
	profitScore := clamp01(profitPerMile / math.Max(e.profitPerMileCeiling, 0.01))

	distanceScore := 0.0
	if prefs.MaxDeadheadMiles > 0 {
		distanceScore = clamp01(1 - deadhead/prefs.MaxDeadheadMiles)
	}

	capacityScore := clamp01(capacityFit / 100)

	bonus := 0.0
	if returnLane {
		bonus = 1.0
	}

	score := 100 * (profitScore*e.weights.Profit +
		distanceScore*e.weights.Distance +
		capacityScore*e.weights.Capacity +
		bonus*e.weights.Preference)

	return math.Min(100, math.Max(0, score))
}

// suggestionType assigns the categorical tag by priority: preferred return
// lane first, then short-deadhead on-route pickups, then plain capacity fill.
func (e *ScoringEngine) suggestionType(deadhead float64, returnLane bool) string {
	switch {
	case returnLane:
		return TypeReturnLane
	case deadhead <= e.onRouteThresholdMiles:
		return TypeOnRoute
	default:
		return TypeCapacityFill
	}
}

// rankCandidates orders by match score descending, ties broken by profit per
// mile descending, then deadhead ascending. This ordering is the engine's
// only external ranking guarantee.
func rankCandidates(scored []*ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].MatchScore != scored[j].MatchScore {
			return scored[i].MatchScore > scored[j].MatchScore
		}
		if scored[i].ProfitPerMile != scored[j].ProfitPerMile {
			return scored[i].ProfitPerMile > scored[j].ProfitPerMile
		}
		return scored[i].DistanceToPickupMiles < scored[j].DistanceToPickupMiles
	})
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
