// Package metrics provides Prometheus metrics for the fuel price updater.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the updater.
type Metrics struct {
	// Run metrics
	RunsTotal        *prometheus.CounterVec
	LastRunTimestamp prometheus.Gauge

	// Collector metrics
	ObservationsCollected *prometheus.GaugeVec
	CurrentPrice          *prometheus.GaugeVec

	// Store metrics
	UpsertDuration *prometheus.HistogramVec
	RecordsWritten *prometheus.CounterVec
}

// New creates Prometheus metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelupdater_runs_total",
				Help: "Total number of update runs by status",
			},
			[]string{"status"},
		),
		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fuelupdater_last_success_timestamp",
				Help: "Timestamp of the last successful update run",
			},
		),
		ObservationsCollected: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fuelupdater_observations_collected",
				Help: "Number of observations returned by the last collection",
			},
			[]string{"collector"},
		),
		CurrentPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fuelupdater_current_price",
				Help: "Last collected price per liter",
			},
			[]string{"region", "fuel"},
		),
		UpsertDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fuelupdater_upsert_duration_seconds",
				Help:    "Upsert duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"store", "status"},
		),
		RecordsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelupdater_records_written_total",
				Help: "Total number of records accepted by the store",
			},
			[]string{"store"},
		),
	}
}

// RecordRun records the outcome of an update run.
func (m *Metrics) RecordRun(status string, timestamp float64) {
	m.RunsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		m.LastRunTimestamp.Set(timestamp)
	}
}

// RecordCollected records the number of observations a collector returned.
func (m *Metrics) RecordCollected(collector string, count int) {
	m.ObservationsCollected.WithLabelValues(collector).Set(float64(count))
}

// RecordCurrentPrice records the last collected price for a region and fuel.
func (m *Metrics) RecordCurrentPrice(region, fuel string, price float64) {
	m.CurrentPrice.WithLabelValues(region, fuel).Set(price)
}

// RecordUpsert records an upsert against a store.
func (m *Metrics) RecordUpsert(store, status string, duration float64, written int) {
	m.UpsertDuration.WithLabelValues(store, status).Observe(duration)
	m.RecordsWritten.WithLabelValues(store).Add(float64(written))
}
