package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/record"
	"github.com/dmitrymomot/testportal/internal/app"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and load the record directory",
	}
	cmd.AddCommand(recordsListCmd(), recordsImportCmd(), recordsExportCmd())
	return cmd
}

func recordsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the records of the configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := loadRecords(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tNAME\tCATEGORY\tDATE\tOVERALL")
			for _, r := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.Identity, r.DisplayName, r.Category(), r.Test.Date, r.Scores.OverallLabel())
			}
			return w.Flush()
		},
	}
}

func recordsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the records of the configured source as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := loadRecords(cmd)
			if err != nil {
				return err
			}
			data, err := record.MarshalYAML(recs)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func recordsImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a YAML file and load it into the SQLite directory",
		Long: `Validate every record of a YAML file and replace the content of the
SQLite directory at SQLITE_PATH with it. Nothing is written when validation
fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := record.LoadYAMLFile(file)
			if err != nil {
				return err
			}

			cfg, err := app.LoadRecordsConfig()
			if err != nil {
				return err
			}
			db, err := app.OpenSQLite(cmd.Context(), cfg, cliLogger(cmd), true)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := record.NewSQLDirectory(db).Import(cmd.Context(), recs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records into %s\n", len(recs), cfg.SQLite.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with the records")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func loadRecords(cmd *cobra.Command) ([]record.Record, error) {
	cfg, err := app.LoadRecordsConfig()
	if err != nil {
		return nil, err
	}
	dir, err := app.OpenDirectory(cmd.Context(), cfg, cliLogger(cmd))
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	return dir.FindAll(cmd.Context())
}

// cliLogger writes warnings and errors as text to the command's stderr.
func cliLogger(cmd *cobra.Command) *slog.Logger {
	return logger.New(
		logger.WithTextFormatter(),
		logger.WithLevel(slog.LevelWarn),
		logger.WithOutput(cmd.ErrOrStderr()),
	)
}
