// Package metrics exposes Prometheus counters for requests, buckets and cache lookups.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypeplot_requests_total",
			Help: "Total number of external API requests executed",
		},
		[]string{"source", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hypeplot_request_duration_seconds",
			Help:    "Duration of external API requests in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"source"},
	)

	BucketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypeplot_buckets_total",
			Help: "Total number of buckets fetched by outcome",
		},
		[]string{"source", "outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypeplot_cache_lookups_total",
			Help: "Total number of fetch cache lookups by result",
		},
		[]string{"result"},
	)
)

// Bucket outcomes.
const (
	OutcomeFetched  = "fetched"
	OutcomeCached   = "cached"
	OutcomeDegraded = "degraded"
	OutcomeSkipped  = "skipped"
)

// RecordRequest counts one request. An empty source is labelled "unknown".
func RecordRequest(source, status string, elapsed time.Duration) {
	if source == "" {
		source = "unknown"
	}
	RequestsTotal.WithLabelValues(source, status).Inc()
	RequestDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RecordBucket counts one bucket outcome for a source.
func RecordBucket(source, outcome string) {
	BucketsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordCacheLookup counts a fetch cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteTextfile dumps the default registry to path for node_exporter style collection.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
