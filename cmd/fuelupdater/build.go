package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/rodacerto/fuel-price-updater/internal/collector"
	"github.com/rodacerto/fuel-price-updater/internal/collector/anp"
	"github.com/rodacerto/fuel-price-updater/internal/collector/static"
	"github.com/rodacerto/fuel-price-updater/internal/config"
	"github.com/rodacerto/fuel-price-updater/internal/database"
	"github.com/rodacerto/fuel-price-updater/internal/store"
	"github.com/rodacerto/fuel-price-updater/internal/supabase"
)

func buildCollector(c *config.Config, logger zerolog.Logger) (collector.Collector, error) {
	switch c.Collector {
	case config.CollectorStatic:
		return static.New(logger), nil
	case config.CollectorANP:
		return anp.New(logger, c.ANPURL, c.RequestTimeout), nil
	default:
		return nil, fmt.Errorf("unknown collector: %s", c.Collector)
	}
}

// buildStore returns the configured destination and a closer releasing its resources.
func buildStore(c *config.Config, logger zerolog.Logger) (store.Upserter, io.Closer, error) {
	switch c.Store {
	case config.StoreSupabase:
		client, err := supabase.New(supabase.Config{
			BaseURL:        c.SupabaseURL,
			APIKey:         c.SupabaseKey,
			Table:          c.Table,
			Timeout:        c.RequestTimeout,
			SendObservedAt: c.SendObservedAt,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, noopCloser{}, nil
	case config.StorePostgres:
		db, err := database.NewPostgres(c.PostgresDSN, c.Table, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		return db, db, nil
	case config.StoreMySQL:
		db, err := database.NewMySQL(c.MySQLDSN, c.Table, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		return db, db, nil
	case config.StoreSQLite:
		db, err := database.NewSQLite(c.SQLitePath, c.Table, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return db, db, nil
	case config.StoreNone:
		return &store.NopStore{}, noopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store: %s", c.Store)
	}
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }
