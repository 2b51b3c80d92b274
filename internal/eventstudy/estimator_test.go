package eventstudy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/panelmetrics/twfelab/internal/panel"
)

func noiselessParams() panel.Params {
	return panel.Params{
		NumUnits:   6,
		NumPeriods: 10,
		SigmaEps:   0,
		PTreat:     0.5,
		Staggered:  false,
		HetUnit:    panel.HetUnitHomogeneous,
		HetTime:    panel.HetTimeConstant,
		Alpha:      1,
		Beta:       2,
	}
}

func TestEstimateRecoversEffectExactly(t *testing.T) {
	// Zero noise, zero fixed-effect variance, homogeneous constant effect:
	// the regression must recover beta exactly at every treated lag and zero
	// at every pre-treatment lag.
	p := noiselessParams()

	pl, err := panel.Generate(rand.New(rand.NewSource(1)), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	estimates, err := Estimate(pl)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if len(estimates) == 0 {
		t.Fatal("expected estimates for a treated panel with controls")
	}

	const tol = 1e-8
	for _, e := range estimates {
		want := 0.0
		if e.Lag >= 0 {
			want = p.Beta
		}
		if math.Abs(e.Estimate-want) > tol {
			t.Errorf("lag %d: estimate %g, want %g", e.Lag, e.Estimate, want)
		}
	}
}

func TestEstimateOmitsReferenceLag(t *testing.T) {
	p := noiselessParams()
	p.SigmaEps = 1
	p.Staggered = true
	p.NumUnits = 20

	pl, err := panel.Generate(rand.New(rand.NewSource(2)), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	estimates, err := Estimate(pl)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	for _, e := range estimates {
		if e.Lag == ReferenceLag {
			t.Fatalf("reference lag %d must never be reported", ReferenceLag)
		}
	}
}

func TestEstimateOrderedByLag(t *testing.T) {
	p := noiselessParams()
	p.SigmaEps = 1
	p.Staggered = true
	p.NumUnits = 20

	pl, err := panel.Generate(rand.New(rand.NewSource(3)), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	estimates, err := Estimate(pl)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	for i := 1; i < len(estimates); i++ {
		if estimates[i].Lag <= estimates[i-1].Lag {
			t.Fatalf("estimates not in ascending lag order: %d after %d", estimates[i].Lag, estimates[i-1].Lag)
		}
	}
}

func TestEstimateAllControlPanel(t *testing.T) {
	p := noiselessParams()
	p.PTreat = 0
	p.SigmaEps = 1

	pl, err := panel.Generate(rand.New(rand.NewSource(4)), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	estimates, err := Estimate(pl)
	if err != nil {
		t.Fatalf("Estimate should tolerate a panel with no treated units: %v", err)
	}
	if len(estimates) != 0 {
		t.Errorf("expected no estimates, got %d", len(estimates))
	}
}

func TestEstimateDropsFullyCollinearLags(t *testing.T) {
	// Everyone treated at the same time: every lag dummy is a pure period
	// indicator, absorbed entirely by the time fixed effects. The estimator
	// must drop all of them silently instead of failing.
	p := noiselessParams()
	p.PTreat = 1
	p.SigmaEps = 1

	pl, err := panel.Generate(rand.New(rand.NewSource(5)), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	estimates, err := Estimate(pl)
	if err != nil {
		t.Fatalf("Estimate must not fail on collinear lag dummies: %v", err)
	}
	if len(estimates) != 0 {
		t.Errorf("expected all lags absorbed, got %d estimates", len(estimates))
	}
}

func TestEstimateStandardErrorsPositiveUnderNoise(t *testing.T) {
	p := noiselessParams()
	p.SigmaEps = 1
	p.NumUnits = 30
	p.NumPeriods = 12
	p.Staggered = true

	pl, err := panel.Generate(rand.New(rand.NewSource(6)), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	estimates, err := Estimate(pl)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if len(estimates) == 0 {
		t.Fatal("expected estimates")
	}

	for _, e := range estimates {
		if !(e.StdErr > 0) {
			t.Errorf("lag %d: standard error %g, want > 0", e.Lag, e.StdErr)
		}
		if e.PValue < 0 || e.PValue > 1 {
			t.Errorf("lag %d: p-value %g outside [0, 1]", e.Lag, e.PValue)
		}
	}
}

func TestDemeanTwoWayRemovesFixedEffects(t *testing.T) {
	// A pure unit effect plus a pure time effect must demean to exactly zero
	// on a balanced panel.
	numUnits, numPeriods := 4, 5
	unitEffect := []float64{0, 1.5, -2, 0.25, 3}
	timeEffect := []float64{0, -1, 0.5, 2, -0.5, 1}

	var values []float64
	var unit, period []int
	for u := 1; u <= numUnits; u++ {
		for p := 1; p <= numPeriods; p++ {
			values = append(values, unitEffect[u]+timeEffect[p])
			unit = append(unit, u)
			period = append(period, p)
		}
	}

	out := demeanTwoWay(values, unit, period, numUnits, numPeriods)
	for i, v := range out {
		if math.Abs(v) > 1e-12 {
			t.Fatalf("row %d: expected 0 after two-way demeaning, got %g", i, v)
		}
	}
}

func TestScreenIndependentDropsDegenerateColumns(t *testing.T) {
	a := []float64{1, 0, 0, -1}
	b := []float64{0, 1, -1, 0}
	zero := []float64{0, 0, 0, 0}
	dup := []float64{2, 0, 0, -2} // scalar multiple of a

	kept := screenIndependent([][]float64{a, zero, b, dup})
	if len(kept) != 2 || kept[0] != 0 || kept[1] != 2 {
		t.Errorf("expected columns 0 and 2 kept, got %v", kept)
	}
}
