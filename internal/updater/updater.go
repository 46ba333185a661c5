// Package updater provides orchestration for collecting fuel prices and upserting them into a store.
package updater

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rodacerto/fuel-price-updater/internal/collector"
	"github.com/rodacerto/fuel-price-updater/internal/metrics"
	"github.com/rodacerto/fuel-price-updater/internal/models"
	"github.com/rodacerto/fuel-price-updater/internal/store"
)

// Report describes one update run.
type Report struct {
	RunID        string
	Observations []models.PriceObservation
	Result       models.UpsertResult
}

// Stats holds run statistics.
type Stats struct {
	mu            sync.RWMutex
	lastRunID     string
	totalRuns     int64
	totalErrors   int64
	lastRunAt     *time.Time
	lastSuccess   bool
	lastDuration  time.Duration
	lastCollected int
	lastWritten   int
	lastError     *string
}

// Snapshot is a thread-safe copy of Stats data.
type Snapshot struct {
	LastRunID     string
	TotalRuns     int64
	TotalErrors   int64
	LastRunAt     *time.Time
	LastSuccess   bool
	LastDuration  time.Duration
	LastCollected int
	LastWritten   int
	LastError     *string
}

// Snapshot returns a thread-safe snapshot of the stats.
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		LastRunID:     s.lastRunID,
		TotalRuns:     s.totalRuns,
		TotalErrors:   s.totalErrors,
		LastRunAt:     s.lastRunAt,
		LastSuccess:   s.lastSuccess,
		LastDuration:  s.lastDuration,
		LastCollected: s.lastCollected,
		LastWritten:   s.lastWritten,
		LastError:     s.lastError,
	}
}

func (s *Stats) record(runID string, startedAt time.Time, collected, written int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRunID = runID
	s.totalRuns++
	s.lastRunAt = &startedAt
	s.lastDuration = time.Since(startedAt)
	s.lastCollected = collected
	s.lastWritten = written
	if err != nil {
		s.totalErrors++
		s.lastSuccess = false
		errStr := err.Error()
		s.lastError = &errStr
		return
	}
	s.lastSuccess = true
	s.lastError = nil
}

// Updater runs a collector and hands its full result set to a store.
type Updater struct {
	collector collector.Collector
	store     store.Upserter
	stats     *Stats
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	mu        sync.Mutex
}

// New creates a new Updater.
func New(c collector.Collector, s store.Upserter, logger zerolog.Logger) *Updater {
	return &Updater{
		collector: c,
		store:     s,
		stats:     &Stats{},
		logger:    logger.With().Str("component", "updater").Logger(),
	}
}

// SetPrometheusMetrics enables Prometheus recording for subsequent runs.
func (u *Updater) SetPrometheusMetrics(m *metrics.Metrics) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.metrics = m
}

// CollectorName returns the name of the configured collector.
func (u *Updater) CollectorName() string {
	return u.collector.Name()
}

// StoreName returns the name of the configured store.
func (u *Updater) StoreName() string {
	return u.store.Name()
}

// Stats returns the run statistics.
func (u *Updater) Stats() *Stats {
	return u.stats
}

// Run collects all observations and upserts them in one batch. The outcome is logged
// here; the returned error lets callers decide on the exit status. Runs are serialized.
func (u *Updater) Run(ctx context.Context) (Report, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	report := Report{RunID: uuid.NewString()}
	logger := u.logger.With().Str("run_id", report.RunID).Logger()
	startedAt := time.Now()

	logger.Info().
		Str("collector", u.collector.Name()).
		Str("store", u.store.Name()).
		Msg("starting fuel price update")

	observations, err := u.collector.Collect(ctx)
	if err != nil {
		logger.Error().
			Err(err).
			Str("collector", u.collector.Name()).
			Msg("failed to collect prices")
		u.finish(report.RunID, startedAt, 0, 0, err)
		return report, fmt.Errorf("collecting prices: %w", err)
	}
	report.Observations = observations

	logger.Info().
		Str("collector", u.collector.Name()).
		Int("count", len(observations)).
		Msg("collected prices")
	u.recordCollected(observations)

	result, err := u.store.Upsert(ctx, observations)
	report.Result = result
	u.recordUpsert(result, err)

	if err != nil {
		var statusErr *store.StatusError
		if errors.As(err, &statusErr) {
			logger.Error().
				Str("store", u.store.Name()).
				Int("status", statusErr.StatusCode).
				Str("body", statusErr.Body).
				AnErr("read_error", statusErr.ReadErr).
				Msg("store rejected prices")
		} else {
			logger.Error().
				Err(err).
				Str("store", u.store.Name()).
				Msg("failed to upsert prices")
		}
		u.finish(report.RunID, startedAt, len(observations), result.Written, err)
		return report, fmt.Errorf("upserting prices: %w", err)
	}

	logger.Info().
		Str("store", u.store.Name()).
		Int("count", result.Written).
		Dur("duration", result.Duration()).
		Msgf("%d price records updated", result.Written)

	u.finish(report.RunID, startedAt, len(observations), result.Written, nil)
	return report, nil
}

func (u *Updater) finish(runID string, startedAt time.Time, collected, written int, err error) {
	u.stats.record(runID, startedAt, collected, written, err)
	if u.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	u.metrics.RecordRun(status, float64(time.Now().Unix()))
}

func (u *Updater) recordCollected(observations []models.PriceObservation) {
	if u.metrics == nil {
		return
	}
	u.metrics.RecordCollected(u.collector.Name(), len(observations))
	for _, o := range observations {
		u.metrics.RecordCurrentPrice(o.RegionCode, string(o.FuelKind), o.Price.InexactFloat64())
	}
}

func (u *Updater) recordUpsert(result models.UpsertResult, err error) {
	if u.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	u.metrics.RecordUpsert(u.store.Name(), status, result.Duration().Seconds(), result.Written)
}
