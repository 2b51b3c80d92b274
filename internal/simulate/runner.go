// Package simulate composes the panel generator, the event-study estimator,
// and the true-effect calculator into single Monte-Carlo replicates, and
// drives replicates across a parameter grid.
package simulate

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/panelmetrics/twfelab/internal/eventstudy"
	"github.com/panelmetrics/twfelab/internal/panel"
)

// Row is one estimated lag from one replicate, tagged with the full
// generative parameter set so rows from many replicates can be regrouped by
// configuration later. TrueEffect is NaN when the true-effect table has no
// entry for the lag.
type Row struct {
	panel.Params

	Lag        int
	Estimate   float64
	StdErr     float64
	PValue     float64
	TrueEffect float64
}

// Run executes one simulation replicate: generate a panel, estimate the
// event-study regression, compute true effects, and left-join true effects
// onto the estimation rows by lag. Estimation rows are never dropped by the
// join.
func Run(rng *rand.Rand, p panel.Params) ([]Row, error) {
	pl, err := panel.Generate(rng, p)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	estimates, err := eventstudy.Estimate(pl)
	if err != nil {
		return nil, fmt.Errorf("estimate: %w", err)
	}

	effects := panel.TrueEffects(pl)

	rows := make([]Row, 0, len(estimates))
	for _, e := range estimates {
		trueEffect, ok := effects[e.Lag]
		if !ok {
			trueEffect = math.NaN()
		}
		rows = append(rows, Row{
			Params:     p,
			Lag:        e.Lag,
			Estimate:   e.Estimate,
			StdErr:     e.StdErr,
			PValue:     e.PValue,
			TrueEffect: trueEffect,
		})
	}
	return rows, nil
}
