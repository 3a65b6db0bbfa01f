package importer

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/crmimport/internal/payload"
)

// Metrics collects one run's counters in its own registry, written out as a
// node_exporter textfile when the run ends.
type Metrics struct {
	registry *prometheus.Registry

	rowsTotal       *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	lastRun         prometheus.Gauge
}

// NewMetrics creates a fresh registry and its collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		rowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crmimport",
			Name:      "rows_total",
			Help:      "Rows processed by outcome.",
		}, []string{"outcome"}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crmimport",
			Name:      "backend_requests_total",
			Help:      "Backend API calls by entity, action and result.",
		}, []string{"entity", "action", "result"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crmimport",
			Name:      "backend_request_duration_seconds",
			Help:      "Latency distribution of backend API calls.",
			Buckets: []float64{
				0.01, 0.02, 0.05,
				0.1, 0.2, 0.5,
				1, 2, 5, 10,
			},
		}, []string{"entity", "action"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "crmimport",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last import finished.",
		}),
	}
}

// ObserveRow counts one row outcome
func (m *Metrics) ObserveRow(s Status) {
	if m == nil {
		return
	}
	m.rowsTotal.WithLabelValues(string(s)).Inc()
}

// ObserveBackend matches backend.Observer
func (m *Metrics) ObserveBackend(entity payload.Entity, action string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.requestsTotal.WithLabelValues(string(entity), action, result).Inc()
	m.requestDuration.WithLabelValues(string(entity), action).Observe(d.Seconds())
}

// WriteFile stamps the run end time and writes the textfile
func (m *Metrics) WriteFile(path string) error {
	m.lastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
