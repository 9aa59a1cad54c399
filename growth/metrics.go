package growth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fpgrowth_run_duration_seconds",
		Help:    "Time to mine a transaction set end to end",
		Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60},
	}, []string{"status"})

	branchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fpgrowth_branch_duration_seconds",
		Help:    "Time to mine one top-level item branch",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
	})

	branchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fpgrowth_branch_failures_total",
		Help: "Top-level branches that returned an error or panicked",
	})

	itemsetsMined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fpgrowth_itemsets_total",
		Help: "Frequent itemsets returned by successful runs",
	})

	activeBranches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fpgrowth_active_branches",
		Help: "Top-level branches currently being mined",
	})
)
