package database

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

var mysql = dialect{
	name:   "mysql",
	driver: "mysql",
	upsert: func(table string) string {
		return fmt.Sprintf(`
		INSERT INTO %s (state_code, fuel_type, price, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			price = VALUES(price),
			updated_at = VALUES(updated_at)
	`, table)
	},
}

// NewMySQL connects to MySQL. The DSN should set parseTime=true; the table must have a
// unique key on (state_code, fuel_type).
func NewMySQL(dsn, table string, logger zerolog.Logger) (*DB, error) {
	return open(mysql, dsn, table, logger)
}
