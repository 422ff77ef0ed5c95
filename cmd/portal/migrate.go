package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/testportal/internal/app"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply record directory migrations",
		Long:  `Apply pending migrations to the SQL source named by RECORDS_SOURCE (sqlite or postgres).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadRecordsConfig()
			if err != nil {
				return err
			}
			if err := app.Migrate(cmd.Context(), cfg, cliLogger(cmd)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied to %s\n", cfg.Records.NormalizedSource())
			return nil
		},
	}
}
