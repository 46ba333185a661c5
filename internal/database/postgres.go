package database

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

var postgres = dialect{
	name:   "postgres",
	driver: "pgx",
	upsert: func(table string) string {
		return fmt.Sprintf(`
		INSERT INTO %s (state_code, fuel_type, price, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (state_code, fuel_type)
		DO UPDATE SET
			price = EXCLUDED.price,
			updated_at = EXCLUDED.updated_at
	`, table)
	},
}

// NewPostgres connects to PostgreSQL. The table must exist with a unique key on (state_code, fuel_type).
func NewPostgres(dsn, table string, logger zerolog.Logger) (*DB, error) {
	return open(postgres, dsn, table, logger)
}
