// Package database provides SQL destinations that upsert fuel prices over a direct database connection.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rodacerto/fuel-price-updater/internal/models"
)

// dialect holds the driver specific parts of a destination.
type dialect struct {
	name   string
	driver string
	// upsert returns the merge-on-duplicate insert for a table.
	upsert func(table string) string
	// schema returns statements creating the table, nil if the table is not owned by us.
	schema func(table string) []string
}

// DB wraps a SQL connection and upserts fuel prices into one table.
type DB struct {
	db      *sql.DB
	dialect dialect
	table   string
	logger  zerolog.Logger
}

func open(d dialect, dsn, table string, logger zerolog.Logger) (*DB, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	out, err := newDB(db, d, table, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return out, nil
}

func newDB(db *sql.DB, d dialect, table string, logger zerolog.Logger) (*DB, error) {
	if table == "" {
		table = "fuel_prices"
	}

	out := &DB{
		db:      db,
		dialect: d,
		table:   table,
		logger:  logger.With().Str("component", "database").Str("dialect", d.name).Logger(),
	}

	if d.schema != nil {
		for _, stmt := range d.schema(table) {
			if _, err := db.Exec(stmt); err != nil {
				return nil, fmt.Errorf("creating schema: %w", err)
			}
		}
	}

	return out, nil
}

// Name returns the destination identifier.
func (d *DB) Name() string {
	return d.dialect.name
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks if the database connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Upsert writes all observations in one transaction. Either every record is written or none.
func (d *DB) Upsert(ctx context.Context, observations []models.PriceObservation) (result models.UpsertResult, err error) {
	result = models.UpsertResult{
		Store:     d.dialect.name,
		StartedAt: time.Now(),
		Records:   make([]models.PriceRecord, 0, len(observations)),
	}
	defer func() {
		result.FinishedAt = time.Now()
	}()

	if len(observations) == 0 {
		return result, nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, d.dialect.upsert(d.table))
	if err != nil {
		return result, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, o := range observations {
		rec := models.NewPriceRecord(o, time.Now())
		if _, err = stmt.ExecContext(ctx,
			rec.StateCode,
			rec.FuelType,
			rec.Price,
			rec.UpdatedAt.UTC(),
		); err != nil {
			return result, fmt.Errorf("upserting %s/%s: %w", rec.StateCode, rec.FuelType, err)
		}
		result.Records = append(result.Records, rec)

		d.logger.Debug().
			Str("state_code", rec.StateCode).
			Str("fuel_type", rec.FuelType).
			Str("price", rec.Price.String()).
			Msg("upserted price record")
	}

	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("committing transaction: %w", err)
	}

	result.Written = len(result.Records)
	return result, nil
}

// CountPrices returns the number of rows in the prices table.
func (d *DB) CountPrices(ctx context.Context) (int64, error) {
	var count int64
	err := d.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", d.table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting prices: %w", err)
	}
	return count, nil
}
