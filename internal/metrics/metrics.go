// Package metrics exposes run and record counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/sheetnotify/internal/core"
)

const namespace = "sheetnotify"

// Run outcome label values.
const (
	RunCompleted = "completed"
	RunNoData    = "no_data"
	RunFailed    = "failed"
	RunCancelled = "cancelled"
)

// Metrics implements core.Observer on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	records  *prometheus.CounterVec
	duration prometheus.Histogram
	active   prometheus.Gauge
}

// New registers all collectors, including the Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Reconciliation runs by outcome.",
		}, []string{"outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records visited by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a reconciliation run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_active",
			Help:      "1 while a run is in progress.",
		}),
	}

	m.registry.MustRegister(
		m.runs,
		m.records,
		m.duration,
		m.active,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Pre-create the label sets so they export as zero before the first run.
	for _, o := range []string{RunCompleted, RunNoData, RunFailed, RunCancelled} {
		m.runs.WithLabelValues(o)
	}
	for _, r := range []string{core.OutcomeSent, core.OutcomeSendFailed, core.OutcomeWriteFailed, core.OutcomeSkipped, core.OutcomeAlreadyDone} {
		m.records.WithLabelValues(r)
	}
	return m
}

// RunStarted implements core.Observer.
func (m *Metrics) RunStarted() {
	m.active.Set(1)
}

// RecordOutcome implements core.Observer.
func (m *Metrics) RecordOutcome(outcome string) {
	m.records.WithLabelValues(outcome).Inc()
}

// RunFinished implements core.Observer.
func (m *Metrics) RunFinished(result *core.RunResult, err error) {
	m.active.Set(0)
	if result != nil {
		m.duration.Observe(float64(result.DurationMs) / 1000)
	}
	m.runs.WithLabelValues(runOutcome(result, err)).Inc()
}

func runOutcome(result *core.RunResult, err error) string {
	switch {
	case err != nil && !core.IsRunFatal(err):
		return RunCancelled
	case err != nil:
		return RunFailed
	case result != nil && result.Message == core.MessageNoData:
		return RunNoData
	default:
		return RunCompleted
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
