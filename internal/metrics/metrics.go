// Package metrics holds the Prometheus collectors exported by the service.
// Collectors register with the default registry, which /metrics serves.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Validation paths
const (
	PathSync = "sync"
	PathJob  = "job"
)

// Job outcomes
const (
	JobEnqueued     = "enqueued"
	JobDeduplicated = "deduplicated"
	JobSucceeded    = "succeeded"
	JobFailed       = "failed"
)

var (
	validationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degreeplan_validation_runs_total",
		Help: "Validation runs by execution path",
	}, []string{"path"})

	validationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "degreeplan_validation_duration_seconds",
		Help:    "Time to load a plan and run its validation",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"path"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degreeplan_validation_cache_total",
		Help: "Validation cache lookups by result",
	}, []string{"result"})

	validationJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degreeplan_validation_jobs_total",
		Help: "Background validation jobs by outcome",
	}, []string{"result"})
)

// ObserveValidation records one validation run on path that took d.
func ObserveValidation(path string, d time.Duration) {
	validationRuns.WithLabelValues(path).Inc()
	validationDuration.WithLabelValues(path).Observe(d.Seconds())
}

// CacheHit records a validation cache hit.
func CacheHit() { cacheLookups.WithLabelValues("hit").Inc() }

// CacheMiss records a validation cache miss.
func CacheMiss() { cacheLookups.WithLabelValues("miss").Inc() }

// Job records a background job outcome.
func Job(result string) { validationJobs.WithLabelValues(result).Inc() }

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
