// Package static provides a collector returning a fixed set of fuel prices.
package static

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rodacerto/fuel-price-updater/internal/models"
)

// CollectorName is the identifier for this collector.
const CollectorName = "static"

type entry struct {
	region string
	fuel   models.FuelKind
	price  string
}

// prices must stay in this order; callers rely on it.
var prices = []entry{
	{"SP", models.FuelGasolina, "5.89"},
	{"SP", models.FuelEtanol, "3.45"},
	{"RJ", models.FuelGasolina, "6.12"},
	{"RJ", models.FuelEtanol, "4.10"},
	{"MG", models.FuelGasolina, "5.95"},
	{"MG", models.FuelEtanol, "3.80"},
}

// Collector returns the same six observations on every call.
type Collector struct {
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a new static collector.
func New(logger zerolog.Logger) *Collector {
	return &Collector{
		logger: logger.With().Str("collector", CollectorName).Logger(),
		now:    time.Now,
	}
}

// Name returns the collector identifier.
func (c *Collector) Name() string {
	return CollectorName
}

// Collect returns the fixed observations stamped with the collection time. It never fails.
func (c *Collector) Collect(ctx context.Context) ([]models.PriceObservation, error) {
	observedAt := c.now()
	c.logger.Info().Time("observedAt", observedAt).Msg("collecting fuel prices")

	result := make([]models.PriceObservation, 0, len(prices))
	for _, p := range prices {
		result = append(result, models.PriceObservation{
			RegionCode: p.region,
			FuelKind:   p.fuel,
			Price:      decimal.RequireFromString(p.price),
			ObservedAt: observedAt,
		})
	}

	return result, nil
}
