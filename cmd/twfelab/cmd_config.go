package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/panelmetrics/twfelab/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective study configuration",
		Long: `Print the study configuration as YAML: the defaults, or the result of
loading --config plus environment overrides. With --write, save it as a
starting point for a new study file.

Examples:
  twfelab config                       # show defaults
  twfelab config --config study.yaml   # show an existing study, resolved
  twfelab config --write study.yaml    # scaffold a new study file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			writePath, _ := cmd.Flags().GetString("write")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			if writePath != "" {
				if err := os.WriteFile(writePath, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", writePath, err)
				}
				fmt.Printf("Wrote study config to %s\n", writePath)
				return nil
			}

			fmt.Print(string(data))
			return nil
		},
	}

	cmd.Flags().String("write", "", "Write the configuration to this file instead of printing it")

	return cmd
}
