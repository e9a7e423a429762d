package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolutionsTotal counts resolve/confirm outcomes.
	// Labels: operation (resolve, confirm), status (success, needs_confirmation, error)
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costchecker",
		Subsystem: "query",
		Name:      "resolutions_total",
		Help:      "Total query resolutions by operation and status",
	}, []string{"operation", "status"})

	// resolutionErrorsTotal counts error results by kind.
	resolutionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costchecker",
		Subsystem: "query",
		Name:      "errors_total",
		Help:      "Total error results by error kind",
	}, []string{"kind"})

	// resolutionSeconds measures end-to-end resolution latency.
	resolutionSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "costchecker",
		Subsystem: "query",
		Name:      "duration_seconds",
		Help:      "Resolution latency by operation",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"operation"})

	// extractorFallbacksTotal counts remote extraction failures downgraded to heuristics.
	// Labels: reason (timeout, error)
	extractorFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costchecker",
		Subsystem: "extractor",
		Name:      "fallbacks_total",
		Help:      "Remote extraction failures that fell back to heuristics",
	}, []string{"reason"})

	// sessionStoreFallbacksTotal counts session writes that fell back to memory.
	sessionStoreFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "costchecker",
		Subsystem: "session",
		Name:      "store_fallbacks_total",
		Help:      "Confirmation session writes that fell back to the in-memory store",
	})

	// sessionsSweptTotal counts expired sessions removed by the sweep worker.
	sessionsSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "costchecker",
		Subsystem: "session",
		Name:      "swept_total",
		Help:      "Expired confirmation sessions removed by the sweeper",
	})
)

// RecordResolution records one resolve or confirm outcome.
func RecordResolution(operation, status, errorKind string, elapsed time.Duration) {
	resolutionsTotal.WithLabelValues(operation, status).Inc()
	if errorKind != "" {
		resolutionErrorsTotal.WithLabelValues(errorKind).Inc()
	}
	resolutionSeconds.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordExtractorFallback records a remote extraction downgrade.
func RecordExtractorFallback(reason string) {
	extractorFallbacksTotal.WithLabelValues(reason).Inc()
}

// RecordSessionStoreFallback records a session write served by memory.
func RecordSessionStoreFallback() {
	sessionStoreFallbacksTotal.Inc()
}

// RecordSessionsSwept records n expired sessions removed.
func RecordSessionsSwept(n int) {
	if n > 0 {
		sessionsSweptTotal.Add(float64(n))
	}
}
