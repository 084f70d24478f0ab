package matching

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_refreshes_total",
			Help: "Total number of suggestion refreshes",
		},
		[]string{"result"},
	)

	suggestionsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_suggestions_written_total",
			Help: "Total number of suggestion rows upserted",
		},
	)

	candidatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_candidates_skipped_total",
			Help: "Candidates dropped during scoring, by reason",
		},
		[]string{"reason"},
	)

	matchScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_match_scores",
			Help:    "Distribution of match scores for persisted suggestions",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "matching_refresh_duration_seconds",
			Help: "End-to-end duration of a suggestion refresh",
		},
	)

	suggestionActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_suggestion_actions_total",
			Help: "Lifecycle actions applied to suggestions",
		},
		[]string{"action"},
	)
)

func RecordRefresh(result string, duration time.Duration) {
	refreshesTotal.WithLabelValues(result).Inc()
	refreshDuration.Observe(duration.Seconds())
}

func RecordSuggestionsWritten(count int) {
	suggestionsWritten.Add(float64(count))
}

func RecordCandidateSkipped(reason string) {
	candidatesSkipped.WithLabelValues(reason).Inc()
}

func RecordMatchScore(score float64) {
	matchScores.Observe(score)
}

func RecordSuggestionAction(action string) {
	suggestionActions.WithLabelValues(action).Inc()
}
