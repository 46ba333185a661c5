package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rodacerto/fuel-price-updater/internal/models"
	"github.com/rodacerto/fuel-price-updater/internal/scheduler"
	"github.com/rodacerto/fuel-price-updater/internal/updater"
)

// StatusHandler handles the /status endpoint.
type StatusHandler struct {
	updater   *updater.Updater
	scheduler *scheduler.Scheduler
	startTime time.Time
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(u *updater.Updater, sched *scheduler.Scheduler) *StatusHandler {
	return &StatusHandler{
		updater:   u,
		scheduler: sched,
		startTime: time.Now(),
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := models.StatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	if h.scheduler != nil {
		response.SchedulerRunning = h.scheduler.IsRunning()
		response.LastScheduledRunAt = h.scheduler.LastRunAt()
		nextRun := h.scheduler.NextRunAt()
		if !nextRun.IsZero() {
			response.NextRunAt = &nextRun
		}
	}

	snapshot := h.updater.Stats().Snapshot()
	response.Updater = models.RunStatus{
		RunID:          snapshot.LastRunID,
		Collector:      h.updater.CollectorName(),
		Store:          h.updater.StoreName(),
		LastRunAt:      snapshot.LastRunAt,
		LastRunSuccess: snapshot.LastSuccess,
		LastDurationMs: snapshot.LastDuration.Milliseconds(),
		LastCollected:  snapshot.LastCollected,
		LastWritten:    snapshot.LastWritten,
		LastError:      snapshot.LastError,
		TotalRuns:      snapshot.TotalRuns,
		TotalErrors:    snapshot.TotalErrors,
	}
	if snapshot.TotalRuns > 0 && !snapshot.LastSuccess {
		response.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}
