// Package collector provides the interface for fuel price sources.
package collector

import (
	"context"

	"github.com/rodacerto/fuel-price-updater/internal/models"
)

// Collector produces price observations.
type Collector interface {
	// Name returns the collector identifier.
	Name() string

	// Collect returns the current observations in source order.
	Collect(ctx context.Context) ([]models.PriceObservation, error)
}
