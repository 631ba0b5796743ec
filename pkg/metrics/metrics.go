// Package metrics holds the Prometheus collectors for meal ingestion and
// alerting.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the ingestion collectors. It registers itself as a single
// prometheus.Collector.
type Metrics struct {
	MealsRecorded        *prometheus.CounterVec
	Alerts               *prometheus.CounterVec
	AlertPersistFailures prometheus.Counter
	IngestRetries        prometheus.Counter
	IngestFailures       *prometheus.CounterVec
	IngestDuration       prometheus.Histogram
}

// New builds the collectors and registers them with registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register sodiumwatch metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.MealsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sodiumwatch_meals_recorded_total",
			Help: "Meals committed to the ledger, by source.",
		},
		[]string{"source"},
	)
	m.Alerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sodiumwatch_alerts_total",
			Help: "Alert slot changes, by severity and action.",
		},
		[]string{"severity", "action"},
	)
	m.AlertPersistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sodiumwatch_alert_persist_failures_total",
		Help: "Alert writes that failed and were discarded.",
	})
	m.IngestRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sodiumwatch_ingest_retries_total",
		Help: "Meal transactions retried after a store failure.",
	})
	m.IngestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sodiumwatch_ingest_failures_total",
			Help: "Rejected or failed meal submissions, by reason.",
		},
		[]string{"reason"},
	)
	m.IngestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sodiumwatch_ingest_duration_seconds",
		Help:    "Time to record a meal end to end.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MealsRecorded, m.Alerts, m.AlertPersistFailures,
		m.IngestRetries, m.IngestFailures, m.IngestDuration,
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordMeal counts a committed meal. Every Record method is a no-op on a
// nil *Metrics.
func (m *Metrics) RecordMeal(source string, took time.Duration) {
	if m == nil {
		return
	}
	m.MealsRecorded.WithLabelValues(source).Inc()
	m.IngestDuration.Observe(took.Seconds())
}

func (m *Metrics) RecordAlert(severity, action string) {
	if m == nil {
		return
	}
	m.Alerts.WithLabelValues(severity, action).Inc()
}

func (m *Metrics) RecordAlertFailure() {
	if m == nil {
		return
	}
	m.AlertPersistFailures.Inc()
}

func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.IngestRetries.Inc()
}

func (m *Metrics) RecordFailure(reason string) {
	if m == nil {
		return
	}
	m.IngestFailures.WithLabelValues(reason).Inc()
}
