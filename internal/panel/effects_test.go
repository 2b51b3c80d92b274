package panel

import (
	"math/rand"
	"testing"
)

func TestTrueEffectsNoTreatedUnits(t *testing.T) {
	p := testParams()
	p.PTreat = 0

	pl, err := Generate(rand.New(rand.NewSource(1)), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	effects := TrueEffects(pl)
	if len(effects) != 0 {
		t.Errorf("expected no true effects for an all-control panel, got %d", len(effects))
	}
}

func TestTrueEffectsZeroNoiseHomogeneous(t *testing.T) {
	p := testParams()
	p.SigmaEps = 0
	p.Staggered = false
	p.Beta = 3

	pl, err := Generate(rand.New(rand.NewSource(2)), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	effects := TrueEffects(pl)
	if len(effects) == 0 {
		t.Fatal("expected true effects for a treated panel")
	}

	for lag, effect := range effects {
		if lag < 0 {
			if effect != 0 {
				t.Errorf("lag %d: pre-treatment true effect %g, want 0", lag, effect)
			}
		} else if effect != p.Beta {
			t.Errorf("lag %d: true effect %g, want %g", lag, effect, p.Beta)
		}
	}
}

func TestTrueEffectsLinearScaling(t *testing.T) {
	p := testParams()
	p.SigmaEps = 0
	p.Staggered = false
	p.HetTime = HetTimeLinear
	p.Beta = 1

	pl, err := Generate(rand.New(rand.NewSource(3)), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Common event time means every treated row at lag L has effect beta*L.
	effects := TrueEffects(pl)
	for lag, effect := range effects {
		want := 0.0
		if lag >= 0 {
			want = p.Beta * float64(lag)
		}
		if effect != want {
			t.Errorf("lag %d: true effect %g, want %g", lag, effect, want)
		}
	}
}
