package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/panelmetrics/twfelab/internal/results"
	"github.com/panelmetrics/twfelab/internal/summarize"
)

func newSummariseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarise",
		Short: "Re-aggregate a persisted run into bias/RMSE summaries",
		Long: `Load the simulation rows of a previous run from its SQLite database,
recompute the normalized bias/RMSE summary per parameter configuration, and
print it. Aggregation is a pure function of the stored rows, so this always
reproduces the summary printed at run time.

Examples:
  twfelab summarise                          # latest run in results/twfelab.db
  twfelab summarise --db out/twfelab.db --run 3
  twfelab summarise --csv summaries.csv      # also export to CSV`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dbPath, _ := cmd.Flags().GetString("db")
			runID, _ := cmd.Flags().GetInt64("run")
			csvOut, _ := cmd.Flags().GetString("csv")

			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("no run database at %s: %w", dbPath, err)
			}

			store, err := results.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if runID == 0 {
				runID, err = store.LatestRunID(ctx)
				if err != nil {
					return err
				}
			}

			rows, err := store.LoadRows(ctx, runID)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return fmt.Errorf("run %d has no simulation rows", runID)
			}

			summaries := summarize.Summarise(rows)

			if csvOut != "" {
				if err := results.WriteSummariesCSV(csvOut, summaries); err != nil {
					return err
				}
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"run":       runID,
					"rows":      len(rows),
					"summaries": summaries,
				})
			}

			fmt.Printf("Run %d: %d simulation rows, %d configurations\n\n", runID, len(rows), len(summaries))
			printSummaryTable(summaries)
			return nil
		},
	}

	cmd.Flags().String("db", "results/twfelab.db", "Path to the run database")
	cmd.Flags().Int64("run", 0, "Run id (0 = latest)")
	cmd.Flags().String("csv", "", "Also write the summary table to this CSV file")

	return cmd
}
