// Package metrics exposes SensorBoard counters in Prometheus format.
//
// Collectors live on a dedicated registry rather than the global default, so
// several boards (or tests) can run in one process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/sensorboard/internal/store"
)

const namespace = "sensorboard"

// StatsSource provides the store counters the func collectors read from.
type StatsSource interface {
	Stats() store.Stats
}

// Metrics holds the registry and the collectors updated by the HTTP layer.
type Metrics struct {
	registry *prometheus.Registry

	rejected prometheus.Counter
	reports  prometheus.Counter
}

// New creates a [Metrics] whose store-backed collectors read from src.
func New(src StatsSource) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rejected_total",
			Help:      "Total ingest requests rejected as invalid samples",
		}),
		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_rendered_total",
			Help:      "Total PDF reports rendered",
		}),
	}

	m.registry.MustRegister(
		m.rejected,
		m.reports,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_total",
			Help:      "Total samples committed to the store",
		}, func() float64 { return float64(src.Stats().Ingested) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_dropped_total",
			Help:      "Total push deliveries dropped because a subscriber was slow",
		}, func() float64 { return float64(src.Stats().Dropped) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "push_subscribers",
			Help:      "Number of currently connected push subscribers",
		}, func() float64 { return float64(src.Stats().Subscribers) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_samples",
			Help:      "Number of samples held in the history",
		}, func() float64 { return float64(src.Stats().HistoryLen) }),
	)

	return m
}

// IngestRejected records an ingest request that failed sample decoding.
func (m *Metrics) IngestRejected() {
	m.rejected.Inc()
}

// ReportRendered records a served PDF report.
func (m *Metrics) ReportRendered() {
	m.reports.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
