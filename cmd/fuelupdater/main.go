// Package main provides the entry point for the fuel price updater CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rodacerto/fuel-price-updater/internal/config"
)

var (
	// Version is set at build time.
	Version = "dev"
	// Commit is set at build time.
	Commit = "none"
	// BuildDate is set at build time.
	BuildDate = "unknown"
)

var cfg *config.Config

func main() {
	if err := loadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "fuelupdater",
		Short: "Fuel Price Updater - keep per-state fuel prices current in the database",
		Long: `Fuel Price Updater collects average fuel prices per Brazilian state and upserts
them into the fuel_prices table, merging on (state_code, fuel_type).

Running without a subcommand performs a single update, like "fuelupdater update".

Features:
  - Static price set or live scraping of the ANP price survey
  - Supabase REST, PostgreSQL, MySQL or SQLite destinations
  - Daily automated updates with Prometheus metrics and a status endpoint`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd)
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.SupabaseURL, "supabase-url", cfg.SupabaseURL, "Supabase project URL")
	flags.StringVar(&cfg.SupabaseKey, "supabase-key", cfg.SupabaseKey, "Supabase API key")
	flags.StringVar(&cfg.Table, "table", cfg.Table, "Destination table")
	flags.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "Timeout for outbound HTTP requests")
	flags.StringVar(&cfg.Store, "store", cfg.Store, "Destination (supabase, postgres, mysql, sqlite, none)")
	flags.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	flags.StringVar(&cfg.MySQLDSN, "mysql-dsn", cfg.MySQLDSN, "MySQL connection string")
	flags.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database file")
	flags.StringVar(&cfg.Collector, "collector", cfg.Collector, "Price source (static, anp)")
	flags.StringVar(&cfg.ANPURL, "anp-url", cfg.ANPURL, "ANP price survey page")
	flags.BoolVar(&cfg.SendObservedAt, "send-observed-at", cfg.SendObservedAt, "Also send the collection time as observed_at")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (json, console)")

	// Add subcommands
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(collectCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig applies defaults, the optional .env and YAML files, then the environment.
func loadConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg = config.DefaultConfig()
	if path := os.Getenv("FUELUPDATER_CONFIG"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return err
		}
	}
	cfg.LoadFromEnv()
	return nil
}

func setupLogger() zerolog.Logger {
	var logger zerolog.Logger

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	return logger
}
