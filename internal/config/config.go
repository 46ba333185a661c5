// Package config provides configuration structures and loading for the fuel price updater.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Supported destinations.
const (
	StoreSupabase = "supabase"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"
	StoreSQLite   = "sqlite"
	StoreNone     = "none"
)

// Supported collectors.
const (
	CollectorStatic = "static"
	CollectorANP    = "anp"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds all configuration for the fuel price updater.
type Config struct {
	// Supabase project URL
	SupabaseURL string `yaml:"supabase_url"`
	// Supabase API key, sent as apikey and bearer token
	SupabaseKey string `yaml:"supabase_key"`
	// Destination table
	Table string `yaml:"table"`
	// Timeout for outbound HTTP requests
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// Destination (supabase, postgres, mysql, sqlite, none)
	Store string `yaml:"store"`
	// PostgreSQL connection string
	PostgresDSN string `yaml:"postgres_dsn"`
	// MySQL connection string
	MySQLDSN string `yaml:"mysql_dsn"`
	// SQLite database file
	SQLitePath string `yaml:"sqlite_path"`
	// Price source (static, anp)
	Collector string `yaml:"collector"`
	// Page scraped by the anp collector
	ANPURL string `yaml:"anp_url"`
	// Also send the collection time as observed_at
	SendObservedAt bool `yaml:"send_observed_at"`
	// Log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
	// Log format (json, console)
	LogFormat string `yaml:"log_format"`
	// HTTP server address
	HTTPAddr string `yaml:"http_addr"`
	// Update hour (0-23)
	UpdateHour int `yaml:"update_hour"`

	// envErrs collects environment values that could not be parsed; reported by Validate.
	envErrs []error
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Table:          "fuel_prices",
		RequestTimeout: 30 * time.Second,
		Store:          StoreSupabase,
		SQLitePath:     "fuelprices.db",
		Collector:      CollectorStatic,
		ANPURL:         "https://preco.anp.gov.br/",
		LogLevel:       "info",
		LogFormat:      "json",
		HTTPAddr:       ":8080",
		UpdateHour:     6,
	}
}

// LoadFromFile overlays values from a YAML file. Keys missing from the file keep their current value.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables. Malformed values are
// reported by Validate.
func (c *Config) LoadFromEnv() {
	if v := firstEnv("SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"); v != "" {
		c.SupabaseURL = v
	}
	if v := firstEnv("SUPABASE_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"); v != "" {
		c.SupabaseKey = v
	}
	if v := os.Getenv("FUEL_PRICES_TABLE"); v != "" {
		c.Table = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = d
		} else {
			c.envErrs = append(c.envErrs, fmt.Errorf("REQUEST_TIMEOUT: %w", err))
		}
	}
	if v := os.Getenv("STORE"); v != "" {
		c.Store = strings.ToLower(v)
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		c.MySQLDSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.SQLitePath = v
	}
	if v := os.Getenv("COLLECTOR"); v != "" {
		c.Collector = strings.ToLower(v)
	}
	if v := os.Getenv("ANP_URL"); v != "" {
		c.ANPURL = v
	}
	if v := os.Getenv("SEND_OBSERVED_AT"); v != "" {
		c.SendObservedAt = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("UPDATE_HOUR"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			c.UpdateHour = i
		} else {
			c.envErrs = append(c.envErrs, fmt.Errorf("UPDATE_HOUR: %w", err))
		}
	}
}

// Validate reports missing or inconsistent settings for the selected collector and store.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.envErrs...)

	switch c.Store {
	case StoreSupabase:
		if c.SupabaseURL == "" {
			errs = append(errs, errors.New("supabase url is required (SUPABASE_URL or --supabase-url)"))
		}
		if c.SupabaseKey == "" {
			errs = append(errs, errors.New("supabase key is required (SUPABASE_KEY or --supabase-key)"))
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres dsn is required (POSTGRES_DSN or --postgres-dsn)"))
		}
	case StoreMySQL:
		if c.MySQLDSN == "" {
			errs = append(errs, errors.New("mysql dsn is required (MYSQL_DSN or --mysql-dsn)"))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite path is required (SQLITE_PATH or --sqlite-path)"))
		}
	case StoreNone:
	default:
		errs = append(errs, fmt.Errorf("unknown store: %q", c.Store))
	}

	switch c.Collector {
	case CollectorStatic:
	case CollectorANP:
		if c.ANPURL == "" {
			errs = append(errs, errors.New("anp url is required for the anp collector"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown collector: %q", c.Collector))
	}

	if !tableNamePattern.MatchString(c.Table) {
		errs = append(errs, fmt.Errorf("invalid table name: %q", c.Table))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.UpdateHour < 0 || c.UpdateHour > 23 {
		errs = append(errs, fmt.Errorf("update hour must be between 0 and 23, got %d", c.UpdateHour))
	}

	return errors.Join(errs...)
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
