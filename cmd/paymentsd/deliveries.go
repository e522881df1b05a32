package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/deliverylog/sqlite"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/config"
)

func deliveriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deliveries [gateway-id]",
		Short: "Show the last recorded webhook outcome for a payment or mandate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DeliveryLog.Path == "" {
				return fmt.Errorf("delivery log disabled: set %sDELIVERY_LOG__PATH", config.EnvPrefix)
			}

			dl, err := sqlite.Open(cfg.DeliveryLog.Path)
			if err != nil {
				return err
			}
			defer dl.Close()

			entry, err := dl.Latest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if entry == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no deliveries recorded for %s\n", args[0])
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		},
	}
}
