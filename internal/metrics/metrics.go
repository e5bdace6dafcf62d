// Package metrics exposes Prometheus collectors for the analyzer service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecfr_api_requests_total",
			Help: "Total requests issued to the eCFR API, labeled by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	apiRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecfr_api_retries_total",
			Help: "Total retried eCFR API requests, labeled by endpoint.",
		},
		[]string{"endpoint"},
	)

	titlesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecfr_titles_processed_total",
			Help: "Total titles emitted by the enrichment pipeline, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	syncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecfr_sync_runs_total",
			Help: "Total pipeline runs, labeled by result.",
		},
		[]string{"result"},
	)

	syncInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecfr_sync_in_progress",
			Help: "1 while a pipeline run is active.",
		},
	)

	rateLimitDelaySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ecfr_rate_limit_delay_seconds",
			Help:    "Histogram of waits imposed by the shared request limiter.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of inbound HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAPIRequest counts one request against the eCFR API.
func ObserveAPIRequest(endpoint string, code int) {
	apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// ObserveAPIRetry counts one retried request.
func ObserveAPIRetry(endpoint string) {
	apiRetriesTotal.WithLabelValues(endpoint).Inc()
}

// ObserveTitleProcessed counts one emitted title by outcome
// ("enriched", "fallback", "reserved", or "failed").
func ObserveTitleProcessed(outcome string) {
	titlesProcessedTotal.WithLabelValues(outcome).Inc()
}

// ObserveSyncRun counts one pipeline run by result.
func ObserveSyncRun(result string) {
	syncRunsTotal.WithLabelValues(result).Inc()
}

// SetSyncInProgress flips the in-progress gauge.
func SetSyncInProgress(active bool) {
	if active {
		syncInProgress.Set(1)
		return
	}
	syncInProgress.Set(0)
}

// ObserveRateLimitDelay records the duration of a limiter wait.
func ObserveRateLimitDelay(d time.Duration) {
	rateLimitDelaySeconds.Observe(d.Seconds())
}

// ObserveHTTPRequest records one inbound request.
func ObserveHTTPRequest(method, route string, d time.Duration) {
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}
