package panel

import (
	"math"
	"math/rand"
)

// Observation is one unit-period row of a generated panel. EventTime and Lag
// are meaningful only when EverTreated is true; never-treated units have no
// event time.
type Observation struct {
	Unit   int
	Period int

	UnitFE float64
	TimeFE float64
	X      float64
	Eps    float64

	EverTreated bool
	EventTime   int
	Effect      float64
	Post        bool
	Treated     bool
	Lag         int

	// Y0 and Y1 are the untreated and treated potential outcomes; Y is the
	// realized outcome selected by Treated.
	Y0 float64
	Y1 float64
	Y  float64
}

// Panel is a generated unit-by-period dataset together with the parameters
// that produced it. Rows are ordered by unit, then period; row count is
// always NumUnits * NumPeriods.
type Panel struct {
	Params Params
	Obs    []Observation
}

// Generate draws one synthetic panel from the data-generating process.
//
// Treated units are sampled without replacement, one fixed effect is drawn
// per unit and per period, and a unit is under treatment from its event
// period onward (relative lag 0 is the onset period). The rng is the only
// source of randomness; a fixed rng and parameter set reproduce the panel
// exactly.
func Generate(rng *rand.Rand, p Params) (*Panel, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	numTreated := int(math.Floor(float64(p.NumUnits) * p.PTreat))

	everTreated := make([]bool, p.NumUnits+1)
	for _, u := range rng.Perm(p.NumUnits)[:numTreated] {
		everTreated[u+1] = true
	}

	// Per-unit draws happen once here, never in the row loop, so every row of
	// a unit shares the same fixed effect, event time, and base effect.
	unitFE := make([]float64, p.NumUnits+1)
	eventTime := make([]int, p.NumUnits+1)
	baseEffect := make([]float64, p.NumUnits+1)
	for u := 1; u <= p.NumUnits; u++ {
		unitFE[u] = p.MuUnitFE + p.SigmaUnitFE*rng.NormFloat64()

		if p.Staggered {
			// Uniform over the interior periods [2, NumPeriods-1].
			eventTime[u] = 2 + rng.Intn(p.NumPeriods-2)
		} else {
			eventTime[u] = p.NumPeriods / 2
		}

		switch p.HetUnit {
		case HetUnitRandom:
			baseEffect[u] = (0.5 + rng.Float64()) * p.Beta
		case HetUnitLargeFirst:
			baseEffect[u] = float64(p.NumPeriods - eventTime[u])
		default:
			baseEffect[u] = p.Beta
		}

		if !everTreated[u] {
			eventTime[u] = 0
			baseEffect[u] = 0
		}
	}

	timeFE := make([]float64, p.NumPeriods+1)
	for t := 1; t <= p.NumPeriods; t++ {
		timeFE[t] = p.MuTimeFE + p.SigmaTimeFE*rng.NormFloat64()
	}

	obs := make([]Observation, 0, p.NumUnits*p.NumPeriods)
	for u := 1; u <= p.NumUnits; u++ {
		for t := 1; t <= p.NumPeriods; t++ {
			o := Observation{
				Unit:        u,
				Period:      t,
				UnitFE:      unitFE[u],
				TimeFE:      timeFE[t],
				EverTreated: everTreated[u],
				Effect:      baseEffect[u],
			}

			if o.EverTreated {
				o.EventTime = eventTime[u]
				o.Lag = t - eventTime[u]
				o.Post = t >= eventTime[u]
				o.Treated = o.Post
			}

			if p.HetTime == HetTimeLinear && o.EverTreated && o.Post {
				o.Effect = baseEffect[u] * float64(t-eventTime[u])
			}

			o.X = p.MuX + p.SigmaX*rng.NormFloat64()
			o.Eps = p.SigmaEps * rng.NormFloat64()

			o.Y0 = p.Alpha + p.Gamma*o.X + o.UnitFE + o.TimeFE + o.Eps
			o.Y1 = o.Y0 + o.Effect
			o.Y = o.Y0
			if o.Treated {
				o.Y = o.Y1
			}

			obs = append(obs, o)
		}
	}

	return &Panel{Params: p, Obs: obs}, nil
}
