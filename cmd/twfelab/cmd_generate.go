package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/panelmetrics/twfelab/internal/eventstudy"
	"github.com/panelmetrics/twfelab/internal/panel"
	"github.com/panelmetrics/twfelab/internal/results"
)

// estimateDisplayLimit caps how many estimate rows the generate command
// prints.
const estimateDisplayLimit = 15

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a single synthetic panel and inspect its estimates",
		Long: `Generate one panel from a single parameter configuration, optionally
write it to CSV, and print the event-study estimates next to the true
effects for a quick look at one draw of the DGP.

Examples:
  twfelab generate --units 50 --periods 20 --staggered
  twfelab generate --het-unit large_first --het-time linear --out panel.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			seed, _ := cmd.Flags().GetInt64("seed")
			out, _ := cmd.Flags().GetString("out")

			p := panel.Default()
			p.NumUnits, _ = cmd.Flags().GetInt("units")
			p.NumPeriods, _ = cmd.Flags().GetInt("periods")
			p.SigmaEps, _ = cmd.Flags().GetFloat64("sigma")
			p.PTreat, _ = cmd.Flags().GetFloat64("p-treat")
			p.Staggered, _ = cmd.Flags().GetBool("staggered")
			p.Alpha, _ = cmd.Flags().GetFloat64("alpha")
			p.Beta, _ = cmd.Flags().GetFloat64("beta")
			hetUnit, _ := cmd.Flags().GetString("het-unit")
			hetTime, _ := cmd.Flags().GetString("het-time")
			p.HetUnit = panel.HetUnit(hetUnit)
			p.HetTime = panel.HetTime(hetTime)

			rng := rand.New(rand.NewSource(seed))
			pl, err := panel.Generate(rng, p)
			if err != nil {
				return err
			}

			if out != "" {
				if err := results.WritePanelCSV(out, pl); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "wrote %d rows to %s\n", len(pl.Obs), out)
			}

			estimates, err := eventstudy.Estimate(pl)
			if err != nil {
				return err
			}
			effects := panel.TrueEffects(pl)

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"params":       p,
					"rows":         len(pl.Obs),
					"estimates":    estimates,
					"true_effects": effects,
				})
			}

			fmt.Printf("Panel: %d units x %d periods (%d rows)\n\n",
				p.NumUnits, p.NumPeriods, len(pl.Obs))
			fmt.Printf("%5s %10s %10s %10s %12s\n", "lag", "estimate", "std_err", "p_value", "true_effect")
			fmt.Println(repeatChar('-', 51))

			shown := estimates
			if len(shown) > estimateDisplayLimit {
				shown = shown[:estimateDisplayLimit]
			}
			for _, e := range shown {
				trueEffect, ok := effects[e.Lag]
				trueStr := fmt.Sprintf("%12.4f", trueEffect)
				if !ok {
					trueStr = fmt.Sprintf("%12s", "-")
				}
				fmt.Printf("%5d %10.4f %10.4f %10.4f %s\n",
					e.Lag, e.Estimate, e.StdErr, e.PValue, trueStr)
			}
			if len(estimates) > estimateDisplayLimit {
				fmt.Printf("... %d more lags\n", len(estimates)-estimateDisplayLimit)
			}
			return nil
		},
	}

	cmd.Flags().Int("units", 50, "Number of units")
	cmd.Flags().Int("periods", 20, "Number of periods")
	cmd.Flags().Float64("sigma", 1, "Noise standard deviation")
	cmd.Flags().Float64("p-treat", 0.5, "Share of ever-treated units")
	cmd.Flags().Bool("staggered", true, "Stagger event times over the interior periods")
	cmd.Flags().String("het-unit", "homogeneous", "Cross-unit effect heterogeneity: homogeneous, random, large_first")
	cmd.Flags().String("het-time", "constant", "Over-time effect heterogeneity: constant, linear")
	cmd.Flags().Float64("alpha", 1, "Outcome intercept")
	cmd.Flags().Float64("beta", 1, "Baseline treatment effect")
	cmd.Flags().Int64("seed", 1, "Random seed")
	cmd.Flags().String("out", "", "Write the panel to this CSV file")

	return cmd
}
