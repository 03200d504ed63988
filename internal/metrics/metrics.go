// Package metrics exposes Prometheus metrics for forecast runs
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/soltixdb/crimecast/internal/ingest"
	"github.com/soltixdb/crimecast/internal/models"
	"github.com/soltixdb/crimecast/internal/pipeline"
)

// Option applies a configuration option to the Manager
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets the buckets of the per-pair latency histogram
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry sets the registry metrics are registered on and gathered from
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns the metrics of one process
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	outcomes         *prometheus.CounterVec
	eventsLoaded     prometheus.Counter
	eventsDropped    *prometheus.CounterVec
	pairDuration     prometheus.Histogram
	runDuration      prometheus.Gauge
	lastSuccess      prometheus.Gauge
	recordsPublished prometheus.Counter
	recordsStored    prometheus.Counter
}

// NewManager creates a manager on a fresh registry unless one is given
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "crimecast",
		histogramBuckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.outcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "pair_outcomes_total",
		Help:      "Category/district pairs by outcome status",
	}, []string{"status"})

	m.eventsLoaded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_loaded_total",
		Help:      "Input rows kept as events",
	})

	m.eventsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_dropped_total",
		Help:      "Input rows dropped while loading",
	}, []string{"reason"})

	m.pairDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "pair_duration_seconds",
		Help:      "Time to build and forecast one pair",
		Buckets:   m.histogramBuckets,
	})

	m.runDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last forecast run",
	})

	m.lastSuccess = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last run that produced forecasts",
	})

	m.recordsPublished = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "records_published_total",
		Help:      "Forecast records acknowledged by the queue",
	})

	m.recordsStored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "records_stored_total",
		Help:      "Forecast records written to the database",
	})
}

// Registry returns the registry backing the manager
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOutcome counts one pair outcome and its latency
func (m *Manager) ObserveOutcome(o models.Outcome) {
	m.outcomes.WithLabelValues(string(o.Status)).Inc()
	m.pairDuration.Observe(o.Elapsed.Seconds())
}

// ObserveLoad records loader statistics
func (m *Manager) ObserveLoad(stats ingest.Stats) {
	m.eventsLoaded.Add(float64(stats.Kept))
	m.eventsDropped.WithLabelValues("missing_field").Add(float64(stats.MissingFields))
	m.eventsDropped.WithLabelValues("bad_date").Add(float64(stats.BadDates))
}

// ObserveRun records run duration, and the completion time when the run
// produced at least one record
func (m *Manager) ObserveRun(result *pipeline.Result) {
	if result == nil {
		return
	}
	m.runDuration.Set(result.FinishedAt.Sub(result.StartedAt).Seconds())
	if len(result.Records) > 0 {
		m.lastSuccess.Set(float64(result.FinishedAt.Unix()))
	}
}

// ObservePublished counts records acknowledged by the queue
func (m *Manager) ObservePublished(n int) {
	m.recordsPublished.Add(float64(n))
}

// ObserveStored counts records written to the database
func (m *Manager) ObserveStored(n int) {
	m.recordsStored.Add(float64(n))
}

// Push sends every metric to a Pushgateway, replacing the job's group
func (m *Manager) Push(ctx context.Context, url, job string) error {
	if job == "" {
		job = m.namespace
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
