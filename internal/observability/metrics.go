package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registry *prometheus.Registry

	// DataPoint request rate by operation and outcome. Watch for: error vs success ratio.
	DatapointRequestsTotal *prometheus.CounterVec

	// DataPoint latency per request. Watch for: p95 approaching the client timeout.
	DatapointRequestDuration *prometheus.HistogramVec

	// Failed DataPoint operations by error category (authentication, timeout, decode, ...).
	DatapointErrorsTotal *prometheus.CounterVec

	// Site list served from cache instead of DataPoint.
	LocationCacheHitsTotal prometheus.Counter

	// Cache backend failures by operation (get, set) and category (timeout, connection, unknown).
	// Watch for: memcached unreachable; the app keeps working against DataPoint.
	LocationCacheErrorsTotal *prometheus.CounterVec

	// Number of sites in the last decoded site list.
	DecodedLocations prometheus.Gauge
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	DatapointRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datapointRequestsTotal",
			Help: "Total number of Met Office DataPoint requests",
		},
		[]string{"operation", "status"},
	)
	DatapointRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datapointRequestDurationSeconds",
			Help:    "Met Office DataPoint latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "status"},
	)
	DatapointErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datapointErrorsTotal",
			Help: "Failed DataPoint operations by error category",
		},
		[]string{"category"},
	)
	LocationCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locationCacheHitsTotal",
			Help: "Site list lookups served from cache",
		},
	)
	LocationCacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locationCacheErrorsTotal",
			Help: "Site list cache failures by operation and category",
		},
		[]string{"operation", "category"},
	)
	DecodedLocations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "decodedLocations",
			Help: "Number of sites in the most recently decoded site list",
		},
	)

	registry.MustRegister(
		DatapointRequestsTotal, DatapointRequestDuration, DatapointErrorsTotal,
		LocationCacheHitsTotal, LocationCacheErrorsTotal, DecodedLocations,
	)
}

// StatusLabel buckets an HTTP status code for metric labels.
func StatusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == 401 || statusCode == 403:
		return "unauthorized"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}

// WriteTextfile writes all metrics to path in the Prometheus text format, for
// the node_exporter textfile collector. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
