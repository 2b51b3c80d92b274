package panel

// TrueEffects computes the average realized treatment effect per relative
// lag, restricted to ever-treated units. Each row contributes
// Treated * (Y1 - Y0), so rows observed at a pre-treatment lag contribute
// zero and post-treatment lags average the realized effect magnitudes of the
// units observed at that lag.
//
// A panel with no ever-treated units yields an empty map.
func TrueEffects(pl *Panel) map[int]float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)

	for _, o := range pl.Obs {
		if !o.EverTreated {
			continue
		}
		if o.Treated {
			sums[o.Lag] += o.Y1 - o.Y0
		}
		counts[o.Lag]++
	}

	effects := make(map[int]float64, len(counts))
	for lag, n := range counts {
		effects[lag] = sums[lag] / float64(n)
	}
	return effects
}
