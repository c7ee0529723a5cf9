// Package metrics exposes the Prometheus instrumentation for the analysis
// service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macid_analyses_total",
		Help: "Total number of analysis requests, labelled by format and status.",
	}, []string{"format", "status"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "macid_analysis_duration_ms",
		Help:    "End-to-end analysis latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})

	ProfileEvalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "macid_profile_eval_duration_us",
		Help:    "Latency of a single strategy-profile payoff evaluation in microseconds.",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
	})

	ProfilesEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "macid_profiles_evaluated_total",
		Help: "Total number of strategy profiles whose payoff was evaluated.",
	})
)

// ProfileEvalRecorder implements equilibrium.ProfileEvalObserver on top of
// the Prometheus collectors.
type ProfileEvalRecorder struct{}

func (ProfileEvalRecorder) ObserveProfileEval(_ int, duration time.Duration) {
	ProfilesEvaluated.Inc()
	ProfileEvalDuration.Observe(float64(duration.Microseconds()))
}
