package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Import Metrics
	ImportRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_import_runs_total",
			Help: "Total number of recipe import runs by status",
		},
		[]string{"status"}, // "success", "failed", "skipped"
	)

	ImportRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_import_records_total",
			Help: "Total number of fetched recipe records by outcome",
		},
		[]string{"outcome"}, // "imported", "existing", "skipped", "failed"
	)

	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recipebox_import_duration_seconds",
			Help:    "Duration of recipe import runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	ImportLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recipebox_import_last_success_timestamp",
			Help: "Unix timestamp of the last successful import run",
		},
	)

	// Translation Metrics
	TranslateRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_translate_requests_total",
			Help: "Total number of translation lookups by result",
		},
		[]string{"result"}, // "cache_hit", "translated", "error"
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipebox_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordImportRun records the outcome of one import run.
func RecordImportRun(status string, duration time.Duration) {
	ImportRuns.WithLabelValues(status).Inc()
	if status == "skipped" {
		return
	}
	ImportDuration.Observe(duration.Seconds())
	if status == "success" {
		ImportLastSuccess.Set(float64(time.Now().Unix()))
	}
}

func RecordImportRecord(outcome string) {
	ImportRecords.WithLabelValues(outcome).Inc()
}

func RecordTranslation(result string) {
	TranslateRequests.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
