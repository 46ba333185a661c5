package database

import (
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

var sqlite = dialect{
	name:   "sqlite",
	driver: "sqlite",
	upsert: func(table string) string {
		return fmt.Sprintf(`
		INSERT INTO %s (state_code, fuel_type, price, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(state_code, fuel_type)
		DO UPDATE SET
			price = excluded.price,
			updated_at = excluded.updated_at
	`, table)
	},
	schema: func(table string) []string {
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			state_code TEXT NOT NULL,
			fuel_type TEXT NOT NULL,
			price TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (state_code, fuel_type)
		);`, table),
		}
	},
}

// NewSQLite opens (and creates if needed) a local SQLite database file.
func NewSQLite(path, table string, logger zerolog.Logger) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	db, err := open(sqlite, path, table, logger)
	if err != nil {
		return nil, err
	}
	db.db.SetMaxOpenConns(1)
	return db, nil
}
