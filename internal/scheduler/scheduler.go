// Package scheduler provides a daily scheduler for fuel price updates.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rodacerto/fuel-price-updater/internal/updater"
)

// Runner performs one update.
type Runner interface {
	Run(ctx context.Context) (updater.Report, error)
}

// Scheduler manages the daily update schedule.
type Scheduler struct {
	runner     Runner
	updateHour int
	runOnStart bool
	logger     zerolog.Logger
	now        func() time.Time

	mu        sync.RWMutex
	nextRunAt time.Time
	lastRunAt *time.Time
	running   bool
}

// New creates a new Scheduler.
func New(r Runner, updateHour int, runOnStart bool, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner:     r,
		updateHour: updateHour,
		runOnStart: runOnStart,
		logger:     logger.With().Str("component", "scheduler").Logger(),
		now:        time.Now,
	}
}

// Start starts the scheduler and blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info().
		Int("updateHour", s.updateHour).
		Bool("runOnStart", s.runOnStart).
		Msg("starting scheduler")

	if s.runOnStart {
		s.runUpdate(ctx)
	}

	nextRun := s.scheduleNext()
	timer := time.NewTimer(time.Until(nextRun))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			s.runUpdate(ctx)
			nextRun = s.scheduleNext()
			timer.Reset(time.Until(nextRun))
		}
	}
}

func (s *Scheduler) scheduleNext() time.Time {
	next := nextRunTime(s.now(), s.updateHour)
	s.mu.Lock()
	s.nextRunAt = next
	s.mu.Unlock()

	s.logger.Info().
		Time("nextRun", next).
		Dur("duration", time.Until(next)).
		Msg("next update scheduled")
	return next
}

// nextRunTime returns the next occurrence of hour:00 strictly after now.
func nextRunTime(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// runUpdate runs the updater once; failures are already logged by the updater.
func (s *Scheduler) runUpdate(ctx context.Context) {
	s.logger.Info().Msg("running scheduled update")

	now := s.now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	if _, err := s.runner.Run(ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled update failed")
		return
	}
	s.logger.Info().Msg("scheduled update completed")
}

// NextRunAt returns the time of the next scheduled update.
func (s *Scheduler) NextRunAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRunAt
}

// LastRunAt returns the time of the last update.
func (s *Scheduler) LastRunAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRunAt
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
