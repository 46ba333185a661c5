package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rodacerto/fuel-price-updater/internal/updater"
)

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Run a one-time update",
		Long:  "Collects prices once and upserts them into the configured store. Exits non-zero when the update fails.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd)
		},
	}
}

func runUpdate(cmd *cobra.Command) error {
	logger := setupLogger()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c, err := buildCollector(cfg, logger)
	if err != nil {
		return err
	}

	s, closer, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// The updater logs the outcome; the error only decides the exit status.
	if _, err := updater.New(c, s, logger).Run(ctx); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	return nil
}
