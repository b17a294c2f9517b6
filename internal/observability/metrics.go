package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "store_locator"

// Metrics holds the Prometheus counters, histograms, and gauges for the locator.
type Metrics struct {
	// Upstream provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider, method={search,reverse,route}, outcome={success,empty,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider, method
	ThrottleWait     prometheus.Histogram

	// Cache and resolution metrics.
	CacheLookups *prometheus.CounterVec // labels: prefix, result={hit,miss}
	Resolutions  *prometheus.CounterVec // labels: outcome={matched,unmatched,invalid}

	// HTTP API metrics.
	HTTPRequests *prometheus.HistogramVec // labels: route, status

	// Batch geocoding metrics.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	DecodeErrors            prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Outbound geocoding and routing requests by provider, method, and outcome.",
		}, []string{"provider", "method", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Outbound provider request duration in seconds, excluding throttle wait.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 12},
		}, []string{"provider", "method"}),
		ThrottleWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "throttle_wait_seconds",
			Help:      "Time spent waiting on the shared outbound throttle.",
			Buckets:   []float64{0, 0.05, 0.1, 0.25, 0.35, 0.7, 1.5, 3, 6},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by key prefix and result.",
		}, []string{"prefix", "result"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_resolutions_total",
			Help:      "Geocode resolutions by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration by route and status code.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 15},
		}, []string{"route", "status"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_messages_consumed_total",
			Help:      "Total geocode requests read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_messages_produced_total",
			Help:      "Total geocode results written to the sink topic.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_decode_errors_total",
			Help:      "Geocode requests skipped because they could not be decoded.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_pipeline_running",
			Help:      "1 when the batch pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of geocode requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-resolve-publish cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ProviderRequests,
		m.ProviderDuration,
		m.ThrottleWait,
		m.CacheLookups,
		m.Resolutions,
		m.HTTPRequests,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.DecodeErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	}
}
