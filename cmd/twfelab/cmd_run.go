package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/panelmetrics/twfelab/internal/config"
	"github.com/panelmetrics/twfelab/internal/logging"
	"github.com/panelmetrics/twfelab/internal/results"
	"github.com/panelmetrics/twfelab/internal/simulate"
	"github.com/panelmetrics/twfelab/internal/summarize"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Monte-Carlo study over the configured parameter grid",
		Long: `Expand the parameter grid from the study config, run every
(configuration, replicate) pair, persist the simulation rows, and print the
aggregated bias/RMSE summary.

Examples:
  twfelab run                         # defaults, results under ./results
  twfelab run --config study.yaml     # explicit study definition
  twfelab run --workers 8             # parallel replicates`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers, _ = cmd.Flags().GetInt("workers")
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("iters") {
				cfg.NumIter, _ = cmd.Flags().GetInt("iters")
			}
			if v, _ := cmd.Flags().GetString("log-level"); v != "" {
				cfg.Logging.Level = v
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			trace := logging.NewRunTrace(filepath.Join(cfg.Output.Dir, "trace.jsonl"), cfg.Logging.Level)
			defer trace.Close()

			configs, err := cfg.Grid.Expand()
			if err != nil {
				return err
			}
			logger.Info("starting study",
				"configurations", len(configs), "num_iter", cfg.NumIter,
				"seed", cfg.Seed, "workers", cfg.Workers)

			driver := &simulate.Driver{
				Configs: configs,
				NumIter: cfg.NumIter,
				Seed:    cfg.Seed,
				Workers: cfg.Workers,
				Logger:  logger,
				Trace:   trace,
			}
			rows, err := driver.Run(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("study finished", "rows", len(rows))

			summaries := summarize.Summarise(rows)

			for _, format := range cfg.Output.Formats {
				switch format {
				case "sqlite":
					store, err := results.Open(filepath.Join(cfg.Output.Dir, "twfelab.db"))
					if err != nil {
						return err
					}
					runID, err := store.CreateRun(cmd.Context(), cfg.Seed, cfg.NumIter)
					if err == nil {
						err = store.InsertRows(cmd.Context(), runID, rows)
					}
					if err == nil {
						err = store.InsertSummaries(cmd.Context(), runID, summaries)
					}
					store.Close()
					if err != nil {
						return err
					}
					logger.Info("persisted run", "format", "sqlite", "run_id", runID)
				case "csv":
					if err := results.WriteRowsCSV(filepath.Join(cfg.Output.Dir, "simulations.csv"), rows); err != nil {
						return err
					}
					if err := results.WriteSummariesCSV(filepath.Join(cfg.Output.Dir, "summaries.csv"), summaries); err != nil {
						return err
					}
					logger.Info("persisted run", "format", "csv")
				case "arrow":
					if err := results.WriteRowsArrow(filepath.Join(cfg.Output.Dir, "simulations.arrow"), rows); err != nil {
						return err
					}
					logger.Info("persisted run", "format", "arrow")
				}
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"rows":      len(rows),
					"summaries": summaries,
				})
			}
			printSummaryTable(summaries)
			return nil
		},
	}

	cmd.Flags().Int("workers", 0, "Concurrent replicate workers (overrides config)")
	cmd.Flags().Int64("seed", 0, "Random seed (overrides config)")
	cmd.Flags().Int("iters", 0, "Replicates per configuration (overrides config)")

	return cmd
}

func printSummaryTable(summaries []summarize.Summary) {
	if len(summaries) == 0 {
		fmt.Println("No summaries produced.")
		return
	}

	fmt.Printf("%5s %5s %6s %7s %5s %-12s %-9s %6s %10s %10s %10s\n",
		"N_i", "N_t", "sigma", "p_treat", "stag", "het_unit", "het_time", "beta",
		"bias_pre", "bias_post", "rmse_post")
	fmt.Println(repeatChar('-', 98))

	for _, s := range summaries {
		fmt.Printf("%5d %5d %6.2f %7.2f %5t %-12s %-9s %6.2f %10.4f %10.4f %10.4f\n",
			s.NumUnits, s.NumPeriods, s.SigmaEps, s.PTreat, s.Staggered,
			s.HetUnit, s.HetTime, s.Beta,
			s.BiasPre, s.BiasPost, s.RMSEPost)
	}
}

func repeatChar(c rune, n int) string {
	result := make([]rune, n)
	for i := range result {
		result[i] = c
	}
	return string(result)
}
