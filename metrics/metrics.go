// metrics holds the prometheus collectors for simulation runs and obstruction searches.
// Collectors are registered with the default registry, which the server exposes on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal counts completed simulator runs by terminal result.
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patrol_runs_total",
		Help: "Completed simulator runs by terminal result",
	}, []string{"result"})

	// runMoves tracks the number of moves before a run terminates.
	runMoves = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "patrol_run_moves",
		Help:    "Moves made per simulator run",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10), // 1 to ~260k
	})

	searchTrials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patrol_search_trials_total",
		Help: "Obstruction trials run by all searches",
	})

	searchLoops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patrol_search_loops_total",
		Help: "Obstruction trials that trapped the agent in a loop",
	})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "patrol_search_duration_seconds",
		Help:    "Wall time of complete obstruction searches",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
	})
)

// ObserveRun records one terminated run.
func ObserveRun(result string, moves int) {
	runsTotal.WithLabelValues(result).Inc()
	runMoves.Observe(float64(moves))
}

// ObserveTrial records one obstruction trial.
func ObserveTrial(loop bool) {
	searchTrials.Inc()
	if loop {
		searchLoops.Inc()
	}
}

// ObserveSearch records a finished search.
func ObserveSearch(elapsed time.Duration) {
	searchDuration.Observe(elapsed.Seconds())
}
