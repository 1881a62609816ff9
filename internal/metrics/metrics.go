// Package metrics exposes Prometheus collectors for print jobs, routing
// targets and cut attempts.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vandanarajput/PosAPP/internal/cut"
)

const namespace = "posapp"

// Metrics holds the agent's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	jobs        *prometheus.CounterVec
	targets     *prometheus.CounterVec
	cutAttempts *prometheus.CounterVec
	jobDuration prometheus.Histogram
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "print_jobs_total",
			Help:      "Print jobs by outcome.",
		}, []string{"outcome"}),
		targets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_targets_total",
			Help:      "Routing targets by section and outcome.",
		}, []string{"section", "outcome"}),
		cutAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cut_attempts_total",
			Help:      "Paper cut attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "print_job_duration_seconds",
			Help:      "Time from job start to job end.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.jobs, m.targets, m.cutAttempts, m.jobDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveJob records a finished job
func (m *Metrics) ObserveJob(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(outcome).Inc()
	m.jobDuration.Observe(d.Seconds())
}

// ObserveTarget records a finished routing target
func (m *Metrics) ObserveTarget(section string, err error) {
	if m == nil {
		return
	}
	outcome := "printed"
	if err != nil {
		outcome = "failed"
	}
	m.targets.WithLabelValues(section, outcome).Inc()
}

// ObserveCut records one cut attempt
func (m *Metrics) ObserveCut(a cut.Attempt) {
	if m == nil {
		return
	}
	m.cutAttempts.WithLabelValues(a.Strategy, string(a.Outcome)).Inc()
}
