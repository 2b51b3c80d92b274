// Package panel implements the synthetic panel-data generating process for
// the TWFE bias study: unit and time fixed effects, a covariate, staggered or
// common treatment timing, and configurable treatment-effect heterogeneity
// across units and across time.
package panel

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is returned when generation parameters fail validation.
var ErrInvalidParameter = errors.New("invalid parameter")

// HetUnit selects how treatment-effect magnitude varies across units.
type HetUnit string

const (
	// HetUnitHomogeneous gives every treated unit the same baseline effect.
	HetUnitHomogeneous HetUnit = "homogeneous"

	// HetUnitRandom draws each unit's effect uniformly in
	// [0.5*baseline, 1.5*baseline].
	HetUnitRandom HetUnit = "random"

	// HetUnitLargeFirst sets each unit's effect to the number of periods
	// remaining after its event time, so earlier-treated units get larger
	// effects.
	HetUnitLargeFirst HetUnit = "large_first"
)

// Valid returns true if the value is a recognized heterogeneity rule.
func (h HetUnit) Valid() bool {
	switch h {
	case HetUnitHomogeneous, HetUnitRandom, HetUnitLargeFirst:
		return true
	}
	return false
}

// String returns the string representation of the rule.
func (h HetUnit) String() string {
	return string(h)
}

// HetTime selects how treatment-effect magnitude varies over time after onset.
type HetTime string

const (
	// HetTimeConstant keeps the per-unit effect flat after onset.
	HetTimeConstant HetTime = "constant"

	// HetTimeLinear scales the per-unit effect by the number of elapsed
	// post-treatment periods.
	HetTimeLinear HetTime = "linear"
)

// Valid returns true if the value is a recognized heterogeneity rule.
func (h HetTime) Valid() bool {
	switch h {
	case HetTimeConstant, HetTimeLinear:
		return true
	}
	return false
}

// String returns the string representation of the rule.
func (h HetTime) String() string {
	return string(h)
}

// Params holds every knob of the data-generating process. The zero value of
// the optional fields (fixed-effect and covariate moments, Gamma) is a valid
// configuration; Default fills in a small but fully specified study setup.
type Params struct {
	// NumUnits is the number of cross-sectional units.
	NumUnits int `yaml:"num_units" json:"num_units"`

	// NumPeriods is the number of time periods, 1-indexed in the output.
	NumPeriods int `yaml:"num_periods" json:"num_periods"`

	// SigmaEps is the standard deviation of the idiosyncratic noise.
	SigmaEps float64 `yaml:"sigma_eps" json:"sigma_eps"`

	// PTreat is the share of units that ever receive treatment. The treated
	// count is floor(NumUnits * PTreat).
	PTreat float64 `yaml:"p_treat" json:"p_treat"`

	// Staggered draws each treated unit's event time uniformly from the
	// interior of the time range. When false, all treated units share the
	// midpoint event time floor(NumPeriods/2).
	Staggered bool `yaml:"staggered" json:"staggered"`

	// HetUnit is the cross-unit effect heterogeneity rule.
	HetUnit HetUnit `yaml:"het_unit" json:"het_unit"`

	// HetTime is the over-time effect heterogeneity rule.
	HetTime HetTime `yaml:"het_time" json:"het_time"`

	// Alpha is the outcome intercept.
	Alpha float64 `yaml:"alpha" json:"alpha"`

	// Beta is the baseline treatment-effect magnitude.
	Beta float64 `yaml:"beta" json:"beta"`

	// MuUnitFE and SigmaUnitFE parameterize the unit fixed-effect draw.
	MuUnitFE    float64 `yaml:"mu_unit_fe" json:"mu_unit_fe"`
	SigmaUnitFE float64 `yaml:"sigma_unit_fe" json:"sigma_unit_fe"`

	// MuTimeFE and SigmaTimeFE parameterize the time fixed-effect draw.
	MuTimeFE    float64 `yaml:"mu_time_fe" json:"mu_time_fe"`
	SigmaTimeFE float64 `yaml:"sigma_time_fe" json:"sigma_time_fe"`

	// MuX and SigmaX parameterize the covariate draw.
	MuX    float64 `yaml:"mu_x" json:"mu_x"`
	SigmaX float64 `yaml:"sigma_x" json:"sigma_x"`

	// Gamma is the covariate coefficient in the outcome equation.
	Gamma float64 `yaml:"gamma" json:"gamma"`
}

// Default returns a small, fully specified configuration suitable for quick
// runs and examples.
func Default() Params {
	return Params{
		NumUnits:   50,
		NumPeriods: 20,
		SigmaEps:   1,
		PTreat:     0.5,
		Staggered:  true,
		HetUnit:    HetUnitHomogeneous,
		HetTime:    HetTimeConstant,
		Alpha:      1,
		Beta:       1,
	}
}

// Validate checks the parameter set. Enumerated fields must hold recognized
// values; the panel needs at least one unit and, because staggered event
// times are drawn from the interior of the time range, at least three
// periods. All violations wrap ErrInvalidParameter.
func (p Params) Validate() error {
	if p.NumUnits < 1 {
		return fmt.Errorf("%w: num_units must be >= 1, got %d", ErrInvalidParameter, p.NumUnits)
	}
	if p.NumPeriods < 3 {
		return fmt.Errorf("%w: num_periods must be >= 3, got %d", ErrInvalidParameter, p.NumPeriods)
	}
	if p.PTreat < 0 || p.PTreat > 1 {
		return fmt.Errorf("%w: p_treat must be in [0, 1], got %g", ErrInvalidParameter, p.PTreat)
	}
	if !p.HetUnit.Valid() {
		return fmt.Errorf("%w: het_unit must be one of homogeneous, random, large_first; got %q", ErrInvalidParameter, p.HetUnit)
	}
	if !p.HetTime.Valid() {
		return fmt.Errorf("%w: het_time must be one of constant, linear; got %q", ErrInvalidParameter, p.HetTime)
	}
	return nil
}
