// Package models provides shared data types for the fuel price updater.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FuelKind is the category of fuel a price is recorded for.
type FuelKind string

const (
	// FuelGasolina is regular gasoline.
	FuelGasolina FuelKind = "gasolina"
	// FuelEtanol is hydrated ethanol.
	FuelEtanol FuelKind = "etanol"
	// FuelDiesel is diesel oil.
	FuelDiesel FuelKind = "diesel"
	// FuelGNV is compressed natural gas for vehicles.
	FuelGNV FuelKind = "gnv"
)

// PriceObservation is a single price for one fuel kind in one region.
type PriceObservation struct {
	// RegionCode is the two-letter subdivision code (e.g., "SP").
	RegionCode string `json:"region_code"`
	// FuelKind is the fuel the price refers to.
	FuelKind FuelKind `json:"fuel_kind"`
	// Price is the price in currency units per liter.
	Price decimal.Decimal `json:"price"`
	// ObservedAt is when the collector produced the observation.
	ObservedAt time.Time `json:"observed_at"`
}

// PriceRecord is the row written to a destination for one observation.
type PriceRecord struct {
	StateCode string
	FuelType  string
	Price     decimal.Decimal
	// UpdatedAt is the write time, computed per record while upserting.
	UpdatedAt time.Time
	// ObservedAt is copied from the originating observation.
	ObservedAt time.Time
}

// NewPriceRecord builds the record for an observation written at updatedAt.
func NewPriceRecord(o PriceObservation, updatedAt time.Time) PriceRecord {
	return PriceRecord{
		StateCode:  o.RegionCode,
		FuelType:   string(o.FuelKind),
		Price:      o.Price,
		UpdatedAt:  updatedAt,
		ObservedAt: o.ObservedAt,
	}
}

// UpsertResult describes the outcome of a batched write.
type UpsertResult struct {
	// Store is the destination name (e.g., "supabase", "postgres").
	Store string
	// Records are the rows that were sent, in input order.
	Records []PriceRecord
	// Written is the number of records the destination accepted.
	Written int
	// StatusCode is the HTTP status for REST destinations, zero otherwise.
	StatusCode int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the write took.
func (r UpsertResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunStatus holds the operational status of the last update run.
type RunStatus struct {
	RunID          string     `json:"run_id,omitempty"`
	Collector      string     `json:"collector"`
	Store          string     `json:"store"`
	LastRunAt      *time.Time `json:"last_run_at"`
	LastRunSuccess bool       `json:"last_run_success"`
	LastDurationMs int64      `json:"last_duration_ms"`
	LastCollected  int        `json:"last_collected"`
	LastWritten    int        `json:"last_written"`
	LastError      *string    `json:"last_error"`
	TotalRuns      int64      `json:"total_runs"`
	TotalErrors    int64      `json:"total_errors"`
}

// StatusResponse is the response for the /status endpoint.
type StatusResponse struct {
	Status             string     `json:"status"`
	UptimeSeconds      int64      `json:"uptime_seconds"`
	SchedulerRunning   bool       `json:"scheduler_running"`
	NextRunAt          *time.Time `json:"next_run_at,omitempty"`
	LastScheduledRunAt *time.Time `json:"last_scheduled_run_at,omitempty"`
	Updater            RunStatus  `json:"updater"`
}
