package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	solverRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gorotor_solver_runs_total",
			Help: "Total number of external solver invocations by outcome.",
		},
		[]string{"solver", "outcome"},
	)

	solverRunDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gorotor_solver_run_duration_seconds",
			Help:    "External solver wall time in seconds.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"solver"},
	)

	loadCasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gorotor_load_cases_total",
			Help: "Load cases processed by calc_loads, by final status.",
		},
		[]string{"status"},
	)

	polarExtrapolationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gorotor_polar_extrapolations_total",
			Help: "Polar or pressure queries answered by extrapolation outside the sampled grid.",
		},
	)

	envelopeTiesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gorotor_envelope_ties_total",
			Help: "Envelope extremes where two or more load cases were equal within tolerance.",
		},
	)

	polarCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gorotor_polar_cache_total",
			Help: "Polar database lookups by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(solverRunsTotal)
	prometheus.MustRegister(solverRunDurationSeconds)
	prometheus.MustRegister(loadCasesTotal)
	prometheus.MustRegister(polarExtrapolationsTotal)
	prometheus.MustRegister(envelopeTiesTotal)
	prometheus.MustRegister(polarCacheTotal)
}

// ObserveSolverRun records one external solver invocation.
func ObserveSolverRun(solver, outcome string, d time.Duration) {
	solverRunsTotal.WithLabelValues(solver, outcome).Inc()
	solverRunDurationSeconds.WithLabelValues(solver).Observe(d.Seconds())
}

// ObserveLoadCase records the final status of a load case after calc_loads.
func ObserveLoadCase(status string) {
	loadCasesTotal.WithLabelValues(status).Inc()
}

// IncExtrapolation counts one extrapolated airfoil query.
func IncExtrapolation() {
	polarExtrapolationsTotal.Inc()
}

// AddEnvelopeTies counts tied envelope extremes.
func AddEnvelopeTies(n int) {
	if n > 0 {
		envelopeTiesTotal.Add(float64(n))
	}
}

// IncPolarCache counts a polar database hit or miss.
func IncPolarCache(hit bool) {
	if hit {
		polarCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	polarCacheTotal.WithLabelValues("miss").Inc()
}

// WriteTextfile dumps all registered metrics in the text exposition format,
// suitable for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
