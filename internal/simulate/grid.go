package simulate

import (
	"fmt"

	"github.com/panelmetrics/twfelab/internal/panel"
)

// Grid describes the parameter values a study sweeps over. Expand takes the
// Cartesian product of the listed values; the Fixed block carries the
// parameters that stay constant across every configuration.
type Grid struct {
	NumUnits   []int             `yaml:"num_units" json:"num_units"`
	NumPeriods []int             `yaml:"num_periods" json:"num_periods"`
	SigmaEps   []float64         `yaml:"sigma_eps" json:"sigma_eps"`
	PTreat     []float64         `yaml:"p_treat" json:"p_treat"`
	Staggered  []bool            `yaml:"staggered" json:"staggered"`
	HetUnit    []panel.HetUnit   `yaml:"het_unit" json:"het_unit"`
	HetTime    []panel.HetTime   `yaml:"het_time" json:"het_time"`
	Alpha      []float64         `yaml:"alpha" json:"alpha"`
	Beta       []float64         `yaml:"beta" json:"beta"`
	Fixed      FixedParams       `yaml:"fixed" json:"fixed"`
}

// FixedParams holds the grid's non-swept parameters: fixed-effect and
// covariate moments and the covariate coefficient. The zero value matches
// the generator defaults.
type FixedParams struct {
	MuUnitFE    float64 `yaml:"mu_unit_fe" json:"mu_unit_fe"`
	SigmaUnitFE float64 `yaml:"sigma_unit_fe" json:"sigma_unit_fe"`
	MuTimeFE    float64 `yaml:"mu_time_fe" json:"mu_time_fe"`
	SigmaTimeFE float64 `yaml:"sigma_time_fe" json:"sigma_time_fe"`
	MuX         float64 `yaml:"mu_x" json:"mu_x"`
	SigmaX      float64 `yaml:"sigma_x" json:"sigma_x"`
	Gamma       float64 `yaml:"gamma" json:"gamma"`
}

// DefaultGrid returns the baseline study grid: one small panel size swept
// over treatment timing and both heterogeneity dimensions.
func DefaultGrid() Grid {
	return Grid{
		NumUnits:   []int{50},
		NumPeriods: []int{20},
		SigmaEps:   []float64{1},
		PTreat:     []float64{0.5},
		Staggered:  []bool{false, true},
		HetUnit:    []panel.HetUnit{panel.HetUnitHomogeneous, panel.HetUnitRandom, panel.HetUnitLargeFirst},
		HetTime:    []panel.HetTime{panel.HetTimeConstant, panel.HetTimeLinear},
		Alpha:      []float64{1},
		Beta:       []float64{1},
	}
}

// Expand builds every parameter configuration in the grid, in a fixed
// deterministic order. Every dimension must list at least one value, and
// every resulting configuration must validate.
func (g Grid) Expand() ([]panel.Params, error) {
	if len(g.NumUnits) == 0 || len(g.NumPeriods) == 0 || len(g.SigmaEps) == 0 ||
		len(g.PTreat) == 0 || len(g.Staggered) == 0 || len(g.HetUnit) == 0 ||
		len(g.HetTime) == 0 || len(g.Alpha) == 0 || len(g.Beta) == 0 {
		return nil, fmt.Errorf("grid: every dimension needs at least one value")
	}

	var configs []panel.Params
	for _, nUnits := range g.NumUnits {
		for _, nPeriods := range g.NumPeriods {
			for _, sigmaEps := range g.SigmaEps {
				for _, pTreat := range g.PTreat {
					for _, staggered := range g.Staggered {
						for _, hetUnit := range g.HetUnit {
							for _, hetTime := range g.HetTime {
								for _, alpha := range g.Alpha {
									for _, beta := range g.Beta {
										configs = append(configs, panel.Params{
											NumUnits:    nUnits,
											NumPeriods:  nPeriods,
											SigmaEps:    sigmaEps,
											PTreat:      pTreat,
											Staggered:   staggered,
											HetUnit:     hetUnit,
											HetTime:     hetTime,
											Alpha:       alpha,
											Beta:        beta,
											MuUnitFE:    g.Fixed.MuUnitFE,
											SigmaUnitFE: g.Fixed.SigmaUnitFE,
											MuTimeFE:    g.Fixed.MuTimeFE,
											SigmaTimeFE: g.Fixed.SigmaTimeFE,
											MuX:         g.Fixed.MuX,
											SigmaX:      g.Fixed.SigmaX,
											Gamma:       g.Fixed.Gamma,
										})
									}
								}
							}
						}
					}
				}
			}
		}
	}

	for i, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("grid: configuration %d: %w", i, err)
		}
	}
	return configs, nil
}
