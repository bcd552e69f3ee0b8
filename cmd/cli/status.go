package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/qa-forge/internal/wire"
)

var (
	outputJSON bool
	runLimit   int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows recent generation runs",
	Long:  `Shows recent dataset-generation runs recorded in the tracking database. Requires QF_DB_ENABLED=true.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		store := app.Store()
		if store == nil {
			return fmt.Errorf("run tracking is disabled, set QF_DB_ENABLED=true to record runs")
		}

		runs, err := store.ListRuns(ctx, runLimit)
		if err != nil {
			return fmt.Errorf("failed to retrieve runs: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(runs)
		}

		if len(runs) == 0 {
			slog.Info("No generation runs have been recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tREPOSITORY\tMODEL\tSTATUS\tFILES\tFUNCTIONS\tRECORDS\tSTARTED")
		for _, run := range runs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				run.ID,
				run.RepoName,
				run.Model,
				run.Status,
				run.FilesScanned,
				run.FunctionsFound,
				run.RecordsProduced,
				run.StartedAt.Format(time.RFC822),
			)
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output status as JSON")
	statusCmd.Flags().IntVar(&runLimit, "limit", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(statusCmd)
}
