// Package store provides the interface for destinations that upsert fuel prices.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rodacerto/fuel-price-updater/internal/models"
)

// Upserter writes a batch of observations with merge-on-duplicate semantics,
// keyed on (state_code, fuel_type) by the destination.
type Upserter interface {
	// Name returns the destination identifier.
	Name() string

	// Upsert writes all observations as one batch. The returned result is populated
	// as far as the write got, also when an error is returned.
	Upsert(ctx context.Context, observations []models.PriceObservation) (models.UpsertResult, error)
}

// StatusError is returned by REST destinations answering with a non-success status.
type StatusError struct {
	StatusCode int
	// Body is the response body verbatim.
	Body string
	// ReadErr is set when the body could not be read completely; Body is then partial.
	ReadErr error
}

func (e *StatusError) Error() string {
	if e.ReadErr != nil {
		return fmt.Sprintf("unexpected status code %d: %s (reading body: %v)", e.StatusCode, e.Body, e.ReadErr)
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// NopStore accepts every batch without writing it anywhere.
type NopStore struct{}

// Name returns the destination identifier.
func (s *NopStore) Name() string {
	return "none"
}

// Upsert builds the records it would write and reports all of them as written.
func (s *NopStore) Upsert(_ context.Context, observations []models.PriceObservation) (models.UpsertResult, error) {
	result := models.UpsertResult{
		Store:     s.Name(),
		StartedAt: time.Now(),
		Records:   make([]models.PriceRecord, 0, len(observations)),
	}
	for _, o := range observations {
		result.Records = append(result.Records, models.NewPriceRecord(o, time.Now()))
	}
	result.Written = len(result.Records)
	result.FinishedAt = time.Now()
	return result, nil
}
