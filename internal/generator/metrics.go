package generator

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels of sesiond_documents_total.
const (
	ResultSuccess     = "success"
	ResultClientError = "client_error"
	ResultServerError = "server_error"
)

// Metrics holds Prometheus metrics for document generation.
//
// Metrics:
//   - sesiond_documents_total{result} - generation requests by outcome
//   - sesiond_validation_failures_total{document} - schema failures by document kind
//   - sesiond_render_duration_seconds - time spent rendering templates
//   - sesiond_template_cache_hits_total / _misses_total - uploaded template cache
//   - sesiond_document_size_bytes - size of generated documents
type Metrics struct {
	DocumentsTotal          *prometheus.CounterVec
	ValidationFailuresTotal *prometheus.CounterVec
	RenderDuration          prometheus.Histogram
	CacheHitsTotal          prometheus.Counter
	CacheMissesTotal        prometheus.Counter
	DocumentSize            prometheus.Histogram
}

// NewMetrics creates the generator metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sesiond_documents_total",
				Help: "Total number of document generation requests by result",
			},
			[]string{"result"},
		),
		ValidationFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sesiond_validation_failures_total",
				Help: "Total number of schema validation failures by document kind",
			},
			[]string{"document"}, // "session" or "class"
		),
		RenderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sesiond_render_duration_seconds",
				Help:    "Duration of template rendering in seconds",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sesiond_template_cache_hits_total",
				Help: "Total number of uploaded templates served from the parse cache",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sesiond_template_cache_misses_total",
				Help: "Total number of uploaded templates parsed from scratch",
			},
		),
		DocumentSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sesiond_document_size_bytes",
				Help:    "Size of generated documents in bytes",
				Buckets: prometheus.ExponentialBuckets(8<<10, 2, 10), // 8KB to 4MB
			},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.DocumentsTotal, m.ValidationFailuresTotal, m.RenderDuration,
		m.CacheHitsTotal, m.CacheMissesTotal, m.DocumentSize,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering generator metrics: %w", err)
		}
	}
	return m, nil
}
