// Package metrics exposes harvest metrics through Prometheus.
//
// Metrics live on a private registry so that tests and repeated runs do not
// collide with the global default registry.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quote-harvester/internal/domain"
)

// Page fetch results used as label values.
const (
	resultOK    = "ok"
	resultError = "error"
)

// Registry holds the harvest collectors.
// It implements ports.HarvestRecorder.
type Registry struct {
	reg *prometheus.Registry

	pages      *prometheus.CounterVec
	records    *prometheus.GaugeVec
	duplicates *prometheus.CounterVec
	trimmed    *prometheus.CounterVec
	status     *prometheus.GaugeVec
	runs       prometheus.Counter
	runSeconds prometheus.Histogram
	lastRun    prometheus.Gauge
}

// New creates a registry with every collector registered under namespace.
// Set withRuntime to also export Go runtime and process collectors.
func New(namespace string, withRuntime bool) *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return &Registry{
		reg: reg,
		pages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_fetches_total",
			Help:      "Listing page fetch attempts by category and result.",
		}, []string{"category", "result"}),
		records: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "category_records",
			Help:      "Records kept for a category in the most recent run.",
		}, []string{"category"}),
		duplicates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Records dropped as duplicates.",
		}, []string{"category"}),
		trimmed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_trimmed_total",
			Help:      "Records dropped by the per-category cap.",
		}, []string{"category"}),
		status: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "category_status",
			Help:      "1 for the status of each category in the most recent run.",
		}, []string{"category", "status"}),
		runs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed harvest runs.",
		}),
		runSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a harvest run.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the most recent run started.",
		}),
	}
}

// PageFetched implements ports.HarvestRecorder.
func (r *Registry) PageFetched(category string, err error) {
	result := resultOK
	if err != nil {
		result = resultError
	}

	r.pages.WithLabelValues(category, result).Inc()
}

// CategoryHarvested implements ports.HarvestRecorder.
func (r *Registry) CategoryHarvested(report *domain.CategoryReport) {
	r.records.WithLabelValues(report.Category).Set(float64(report.Records))
	r.duplicates.WithLabelValues(report.Category).Add(float64(report.Duplicates))
	r.trimmed.WithLabelValues(report.Category).Add(float64(report.Trimmed))

	for _, s := range []domain.CategoryStatus{domain.CategoryComplete, domain.CategoryPartial, domain.CategoryEmpty} {
		v := 0.0
		if s == report.Status {
			v = 1
		}

		r.status.WithLabelValues(report.Category, string(s)).Set(v)
	}
}

// RunCompleted implements ports.HarvestRecorder.
func (r *Registry) RunCompleted(report *domain.RunReport) {
	r.runs.Inc()
	r.runSeconds.Observe(report.Duration.Seconds())
	r.lastRun.Set(float64(report.Started.Unix()))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// WriteTextfile writes the registry to path for the node-exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}

	return nil
}
