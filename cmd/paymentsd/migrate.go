package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	schema "github.com/wuyiadepoju/payments-reconciliation/migrations"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/migrations"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/config"
)

func migrateCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Spanner database or apply pending schema statements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			target := migrations.Target{
				ProjectID:  cfg.Spanner.ProjectID,
				InstanceID: cfg.Spanner.InstanceID,
				DatabaseID: cfg.Spanner.DatabaseID,
			}
			if err := migrations.RunMigrations(ctx, target, schema.Files); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "All migrations applied successfully!")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "timeout for migration operations")

	return cmd
}
