// Package summarize collapses concatenated simulation rows into one
// normalized bias/RMSE summary per parameter configuration.
package summarize

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/panelmetrics/twfelab/internal/panel"
	"github.com/panelmetrics/twfelab/internal/simulate"
)

// MinLag and MaxLag bound the relative lags retained for aggregation,
// inclusive on both sides.
const (
	MinLag = -5
	MaxLag = 5
)

// Summary is the aggregate for one parameter configuration: mean normalized
// bias split into pre- and post-treatment lags, and mean normalized RMSE for
// the post-treatment lags.
type Summary struct {
	panel.Params

	BiasPre  float64
	BiasPost float64
	RMSEPost float64
}

// Summarise aggregates simulation rows into one summary per configuration.
//
// Rows are restricted to lags in [MinLag, MaxLag]. Each configuration's
// normalizing denominator is the mean true effect over all of its retained
// rows, pre-treatment lags included even though their true effect is zero.
// A zero denominator turns the configuration's bias and RMSE into NaN rather
// than failing. The RMSE of the pre-treatment lags is computed and then
// discarded; only pre-treatment bias is reported.
//
// Summarise is a pure function of its input: the same rows always produce
// identical summaries, in first-seen configuration order.
func Summarise(rows []simulate.Row) []Summary {
	groups := make(map[panel.Params][]simulate.Row)
	var order []panel.Params

	for _, r := range rows {
		if r.Lag < MinLag || r.Lag > MaxLag {
			continue
		}
		if _, seen := groups[r.Params]; !seen {
			order = append(order, r.Params)
		}
		groups[r.Params] = append(groups[r.Params], r)
	}

	summaries := make([]Summary, 0, len(order))
	for _, cfg := range order {
		group := groups[cfg]

		trueEffects := make([]float64, len(group))
		for i, r := range group {
			trueEffects[i] = r.TrueEffect
		}
		norm := stat.Mean(trueEffects, nil)

		// Normalized deviations per lag, across replicates.
		byLag := make(map[int][]float64)
		var lagOrder []int
		for _, r := range group {
			if _, seen := byLag[r.Lag]; !seen {
				lagOrder = append(lagOrder, r.Lag)
			}
			byLag[r.Lag] = append(byLag[r.Lag], normalizedDeviation(r.Estimate, r.TrueEffect, norm))
		}

		var biasPre, biasPost, rmsePre, rmsePost []float64
		for _, lag := range lagOrder {
			devs := byLag[lag]
			bias := stat.Mean(devs, nil)

			sq := make([]float64, len(devs))
			for i, d := range devs {
				sq[i] = d * d
			}
			rmse := math.Sqrt(stat.Mean(sq, nil))

			if lag >= 0 {
				biasPost = append(biasPost, bias)
				rmsePost = append(rmsePost, rmse)
			} else {
				biasPre = append(biasPre, bias)
				rmsePre = append(rmsePre, rmse)
			}
		}
		_ = rmsePre // computed, never reported

		summaries = append(summaries, Summary{
			Params:   cfg,
			BiasPre:  stat.Mean(biasPre, nil),
			BiasPost: stat.Mean(biasPost, nil),
			RMSEPost: stat.Mean(rmsePost, nil),
		})
	}
	return summaries
}

// normalizedDeviation is (estimate - trueEffect) / norm, with an explicit NaN
// when the normalizer is zero so degenerate configurations stay visible in
// the output instead of crashing or collapsing to infinities.
func normalizedDeviation(estimate, trueEffect, norm float64) float64 {
	if norm == 0 {
		return math.NaN()
	}
	return (estimate - trueEffect) / norm
}
