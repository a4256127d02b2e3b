package board

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// dropsTotal counts completed drags by outcome.
	dropsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kira_board_drops_total",
		Help: "Completed drags by outcome (committed, noop, invalid)",
	}, []string{"outcome"})

	// rebalancesTotal counts column rebalances planned by the client.
	rebalancesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kira_board_rebalances_total",
		Help: "Column rebalances triggered by an insert with no room",
	})

	// mutationsTotal counts settled move mutations by result.
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kira_board_mutations_total",
		Help: "Settled move mutations by result (confirmed, corrected, rolled_back)",
	}, []string{"result"})

	mutationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kira_board_mutation_duration_seconds",
		Help:    "Time from dispatch to settlement of a move mutation",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	})

	// refetchesTotal counts push-triggered refetches by result.
	refetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kira_board_refetches_total",
		Help: "Board refetches by result (ok, error)",
	}, []string{"result"})
)
