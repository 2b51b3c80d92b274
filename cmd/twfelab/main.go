package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "twfelab",
		Short: "Monte-Carlo lab for two-way fixed effects event-study bias",
		Long: `twfelab studies the bias of two-way fixed effects (TWFE) event-study
regressions under staggered and heterogeneous treatment timing.

It generates synthetic panels with known treatment effects, estimates a
dynamic event-study regression on each, and aggregates estimated-versus-true
effects into normalized bias and RMSE summaries per parameter configuration.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Path to study config YAML (defaults apply when empty)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace")

	// Add subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newGenerateCmd(),
		newSummariseCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("twfelab version %s\n", version)
			}
		},
	}
}
