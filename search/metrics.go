package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// expandedTotal counts hypotheses scored and extended by beam search
	expandedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treebeam_search_expanded_hypotheses_total",
		Help: "Total hypotheses expanded by beam search",
	})

	// earlyStoppedTotal counts hypotheses skipped because they cannot reach the K-best
	earlyStoppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treebeam_search_early_stopped_hypotheses_total",
		Help: "Total hypotheses skipped because they cannot beat the completed K-best list",
	})

	completedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treebeam_search_completed_hypotheses_total",
		Help: "Total completed hypotheses by reason",
	}, []string{"reason"})

	exhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treebeam_search_exhausted_total",
		Help: "Total searches that ended without a completed hypothesis",
	})

	sampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treebeam_search_sampled_sequences_total",
		Help: "Total distinct sequences produced by sampling",
	})
)

// Completion reasons.
const (
	ReasonComplete  = "complete"
	ReasonTruncated = "truncated"
)
