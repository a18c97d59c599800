package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	allocationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fos_allocation_runs_total",
		Help: "Allocation runs by result (ok, invalid, error).",
	}, []string{"result"})

	allocationCases = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fos_allocation_cases_total",
		Help: "Cases processed by allocation runs, by outcome.",
	}, []string{"outcome"})

	allocationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fos_allocation_duration_seconds",
		Help:    "Wall time of allocation runs.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	geocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fos_geocode_lookups_total",
		Help: "Address lookups by source (cache, api, not_found).",
	}, []string{"source"})
)

// ObserveAllocation records one allocation run.
func ObserveAllocation(result string, assigned, excluded, deferred int, dur time.Duration) {
	allocationRuns.WithLabelValues(result).Inc()
	allocationCases.WithLabelValues("assigned").Add(float64(assigned))
	allocationCases.WithLabelValues("excluded").Add(float64(excluded))
	allocationCases.WithLabelValues("deferred").Add(float64(deferred))
	allocationDuration.Observe(dur.Seconds())
}

// ObserveGeocode counts address lookups served from source.
func ObserveGeocode(source string, n int) {
	if n <= 0 {
		return
	}
	geocodeLookups.WithLabelValues(source).Add(float64(n))
}
