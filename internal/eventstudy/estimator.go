// Package eventstudy fits the dynamic event-study regression used to probe
// TWFE bias: realized outcome on per-lag treatment dummies for ever-treated
// units, with unit and time fixed effects absorbed exactly by the two-way
// within transformation.
package eventstudy

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/panelmetrics/twfelab/internal/panel"
)

// ReferenceLag is the omitted baseline category, the last fully untreated
// period in the standard event-study convention.
const ReferenceLag = -1

// collinearityTol is the relative residual-norm threshold below which a lag
// dummy column is treated as collinear with the absorbed effects or the
// columns before it, and dropped.
const collinearityTol = 1e-8

// LagEstimate is one estimable lag coefficient. Lags absorbed by the fixed
// effects or collinear with other columns never appear.
type LagEstimate struct {
	Lag      int
	Estimate float64
	StdErr   float64
	PValue   float64
}

// Estimate fits the event-study regression on a generated panel and returns
// one row per surviving lag, ordered by ascending lag. The reference lag is
// omitted; degenerate lag levels are dropped silently rather than reported
// as errors. Never-treated units enter only through the absorbed fixed
// effects, as controls.
func Estimate(pl *panel.Panel) ([]LagEstimate, error) {
	if pl == nil || len(pl.Obs) == 0 {
		return nil, errors.New("eventstudy: empty panel")
	}

	p := pl.Params
	n := len(pl.Obs)

	// Candidate lag levels: every relative lag observed among ever-treated
	// units, except the reference category.
	lagSet := make(map[int]bool)
	for _, o := range pl.Obs {
		if o.EverTreated && o.Lag != ReferenceLag {
			lagSet[o.Lag] = true
		}
	}
	if len(lagSet) == 0 {
		return nil, nil
	}
	lags := make([]int, 0, len(lagSet))
	for lag := range lagSet {
		lags = append(lags, lag)
	}
	sort.Ints(lags)

	unit := make([]int, n)
	period := make([]int, n)
	y := make([]float64, n)
	for i, o := range pl.Obs {
		unit[i] = o.Unit
		period[i] = o.Period
		y[i] = o.Y
	}
	yw := demeanTwoWay(y, unit, period, p.NumUnits, p.NumPeriods)

	// One dummy column per candidate lag, within-transformed like the
	// outcome, then screened for collinearity.
	cols := make([][]float64, len(lags))
	for j, lag := range lags {
		d := make([]float64, n)
		for i, o := range pl.Obs {
			if o.EverTreated && o.Lag == lag {
				d[i] = 1
			}
		}
		cols[j] = demeanTwoWay(d, unit, period, p.NumUnits, p.NumPeriods)
	}

	keptIdx := screenIndependent(cols)
	if len(keptIdx) == 0 {
		return nil, nil
	}

	k := len(keptIdx)
	x := mat.NewDense(n, k, nil)
	for j, idx := range keptIdx {
		x.SetCol(j, cols[idx])
	}
	yVec := mat.NewVecDense(n, yw)

	beta, xtxInv, err := solveOLS(x, yVec)
	if err != nil {
		return nil, err
	}

	// Residual variance with degrees of freedom net of the absorbed unit and
	// time effects and the grand mean.
	var fitted mat.VecDense
	fitted.MulVec(x, beta)
	ssr := 0.0
	for i := 0; i < n; i++ {
		r := yw[i] - fitted.AtVec(i)
		ssr += r * r
	}
	df := float64(n - k - (p.NumUnits - 1) - (p.NumPeriods - 1) - 1)
	if df <= 0 {
		df = float64(n - k)
	}

	sigma2 := 0.0
	if df > 0 {
		sigma2 = ssr / df
	}

	out := make([]LagEstimate, 0, k)
	for j, idx := range keptIdx {
		est := beta.AtVec(j)
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))
		out = append(out, LagEstimate{
			Lag:      lags[idx],
			Estimate: est,
			StdErr:   se,
			PValue:   pValue(est, se, df),
		})
	}
	return out, nil
}

// solveOLS solves the normal equations for the within-transformed system and
// returns the coefficient vector and inv(X'X). A Cholesky solve is tried
// first; if X'X is numerically indefinite despite the collinearity screen,
// an SVD pseudo-inverse is used instead.
func solveOLS(x *mat.Dense, y *mat.VecDense) (*mat.VecDense, *mat.SymDense, error) {
	n, k := x.Dims()

	xtx := mat.NewSymDense(k, nil)
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			s := 0.0
			for i := 0; i < n; i++ {
				s += x.At(i, a) * x.At(i, b)
			}
			xtx.SetSym(a, b, s)
		}
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var chol mat.Cholesky
	if chol.Factorize(xtx) {
		beta := mat.NewVecDense(k, nil)
		if err := chol.SolveVecTo(beta, &xty); err == nil {
			inv := mat.NewSymDense(k, nil)
			if err := chol.InverseTo(inv); err == nil {
				return beta, inv, nil
			}
		}
	}

	// Fallback: minimum-norm least squares through the SVD of X'X.
	var svd mat.SVD
	if !svd.Factorize(xtx, mat.SVDFull) {
		return nil, nil, errors.New("eventstudy: SVD factorization failed")
	}
	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	tol := collinearityTol * values[0]
	inv := mat.NewSymDense(k, nil)
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			s := 0.0
			for c := 0; c < k; c++ {
				if values[c] > tol {
					s += v.At(a, c) * v.At(b, c) / values[c]
				}
			}
			inv.SetSym(a, b, s)
		}
	}

	beta := mat.NewVecDense(k, nil)
	beta.MulVec(inv, &xty)
	return beta, inv, nil
}

// screenIndependent runs modified Gram-Schmidt over the columns in order and
// returns the indices of columns that are linearly independent of the ones
// kept before them. Columns with no variation drop out here as well.
func screenIndependent(cols [][]float64) []int {
	var kept []int
	var basis [][]float64

	for j, col := range cols {
		origNorm := vecNorm(col)
		if origNorm == 0 {
			continue
		}

		r := append([]float64(nil), col...)
		for _, q := range basis {
			proj := dot(q, r)
			for i := range r {
				r[i] -= proj * q[i]
			}
		}

		norm := vecNorm(r)
		if norm <= collinearityTol*origNorm {
			continue
		}

		for i := range r {
			r[i] /= norm
		}
		basis = append(basis, r)
		kept = append(kept, j)
	}
	return kept
}

// pValue computes the two-sided p-value of a t-statistic with df degrees of
// freedom, clamped to [0, 1]. A zero standard error collapses to 0 or 1
// depending on whether the estimate itself is zero.
func pValue(est, se, df float64) float64 {
	if df <= 0 || math.IsNaN(se) {
		return math.NaN()
	}
	if se == 0 {
		if est == 0 {
			return 1
		}
		return 0
	}

	t := math.Abs(est / se)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - dist.CDF(t))
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func vecNorm(a []float64) float64 {
	return math.Sqrt(dot(a, a))
}
