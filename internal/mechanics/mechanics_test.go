package mechanics

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/cable"
	"github.com/agerpk/estructural/internal/config"
)

var (
	aaac120 = cable.Cable{
		ID: "AAAC_120", DiameterMM: 14, SectionMM2: 120, UnitWeight: 0.324,
		UltimateLoad: 4180, ElasticModulus: 6300, ThermalExpansion: 2.3e-5, Material: "AAAC",
	}
	opgw48 = cable.Cable{
		ID: "OPGW_48", DiameterMM: 14.4, SectionMM2: 96, UnitWeight: 0.55,
		UltimateLoad: 7500, ElasticModulus: 12000, ThermalExpansion: 1.5e-5, Material: "OPGW",
	}
)

func windTable(t *testing.T, c cable.Cable, span float64) *cable.WindTable {
	t.Helper()
	exp, err := aea.ExposureC.Params()
	require.NoError(t, err)
	return cable.NewWindTable(c, cable.WindParams{
		Exposure: exp, Fc: 1.15, Height: 10, Span: span, Cf: 1, Vmax: 38.9, Vmed: 15.56,
	})
}

func TestSolveChangeOfState(t *testing.T) {
	cases := []struct {
		name string
		a, b float64
	}{
		{"single real root", -5, -10},
		{"negative A dominant", -10, -0.01},
		{"three real roots", 3, -1},
		{"typical span", 12.4, -3500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x := SolveChangeOfState(tc.a, tc.b)
			require.Greater(t, x, 0.0)
			f := x*x*x + tc.a*x*x + tc.b
			assert.InDelta(t, 0, f, 1e-9*math.Max(1, math.Abs(tc.b)))
		})
	}
}

func TestMinSagSingleState(t *testing.T) {
	p := Problem{
		Cable: aaac120,
		Span:  150,
		States: config.ClimaticStates{
			{ID: "I", Temperature: 35, MaxTensionFraction: 0.25},
		},
		Objective: config.ObjectiveMinSag,
	}
	r := p.Optimize()
	require.True(t, r.Converged)
	assert.Equal(t, "tension:I", r.Limiter)
	assert.Equal(t, "I", r.BasicState)

	wantStress := 0.25 * 4180 / 120
	assert.InEpsilon(t, wantStress, r.OptimalStress, 1e-3)

	s, ok := r.State("I")
	require.True(t, ok)
	wantSag := 0.324 * 150 * 150 / (8 * wantStress * 120)
	assert.InEpsilon(t, wantSag, s.Sag, 0.02)
	assert.InDelta(t, s.Sag, s.ResultantSag, 1e-12)
	assert.InDelta(t, 25, s.PercentUltimate, 0.05)
}

func TestBasicStateFixedPoint(t *testing.T) {
	p := Problem{
		Cable:     aaac120,
		Span:      300,
		States:    config.DefaultStates(),
		Wind:      windTable(t, aaac120, 300),
		Objective: config.ObjectiveMinSag,
	}
	for _, t0 := range []float64{2, 5, 9, 14} {
		states, basic := p.Solve(t0)
		assert.Equal(t, basic, maxTension(states), "seed %.1f", t0)
		// every state is consistent with the basic one
		again := p.statesFrom(basic, states[basic].Stress)
		for i := range states {
			assert.InEpsilon(t, states[i].Stress, again[i].Stress, 1e-9)
		}
	}
}

func TestChangeOfStateReversible(t *testing.T) {
	p := Problem{Cable: aaac120, Span: 250, States: config.DefaultStates(), Wind: windTable(t, aaac120, 250)}
	from0 := p.statesFrom(0, 6)
	from2 := p.statesFrom(2, from0[2].Stress)
	assert.InEpsilon(t, 6.0, from2[0].Stress, 1e-9)
}

func TestMinSagMonotonicInCeiling(t *testing.T) {
	prevStress, prevSag := 0.0, math.Inf(1)
	for _, frac := range []float64{0.15, 0.18, 0.22, 0.25, 0.30, 0.35} {
		states := config.DefaultStates()
		for i := range states {
			states[i].MaxTensionFraction = frac
		}
		p := Problem{
			Cable: aaac120, Span: 200, States: states,
			Wind: windTable(t, aaac120, 200), Objective: config.ObjectiveMinSag,
		}
		r := p.Optimize()
		require.True(t, r.Converged, "ceiling %.2f", frac)
		assert.GreaterOrEqual(t, r.OptimalStress, prevStress)
		assert.LessOrEqual(t, r.MaxSag(), prevSag+1e-12)
		prevStress, prevSag = r.OptimalStress, r.MaxSag()
	}
}

func TestGuardSagRatio(t *testing.T) {
	states := config.DefaultStates()
	cond := Problem{
		Cable: aaac120, Span: 150, States: states,
		Wind: windTable(t, aaac120, 150), Objective: config.ObjectiveMinSag,
	}
	ref := cond.Optimize()
	require.True(t, ref.Converged)
	refI, _ := ref.State("I")

	guard := Problem{
		Cable: opgw48, Span: 150, States: states,
		Wind: windTable(t, opgw48, 150), Objective: config.ObjectiveMinTension,
		Reference: &ref,
	}
	r := guard.Optimize()
	require.True(t, r.Converged)
	assert.Equal(t, "relflecha:I", r.Limiter)

	g, _ := r.State("I")
	assert.LessOrEqual(t, g.Sag, 0.9*refI.Sag*(1+1e-9))
	// the super-fine step leaves the ratio close to its cap
	assert.Greater(t, g.Sag, 0.89*refI.Sag)
	assert.Less(t, r.OptimalStress, startMinTension*opgw48.UltimateStress())
}

func TestGuardMaxSag(t *testing.T) {
	p := Problem{
		Cable: opgw48, Span: 300, States: config.DefaultStates(),
		Wind: windTable(t, opgw48, 300), Objective: config.ObjectiveMinTension, MaxSag: 6,
	}
	r := p.Optimize()
	require.True(t, r.Converged)
	assert.Contains(t, r.Limiter, "flecha:")
	assert.LessOrEqual(t, r.MaxSag(), 6*(1+1e-9))
	assert.Greater(t, r.MaxSag(), 5.9)
}

func TestPhysicalMaximum(t *testing.T) {
	p := Problem{
		Cable:     aaac120,
		Span:      150,
		States:    config.ClimaticStates{{ID: "I", Temperature: 35}},
		Objective: config.ObjectiveMinSag,
	}
	r := p.Optimize()
	require.True(t, r.Converged)
	assert.Equal(t, LimitPhysicalMax, r.Limiter)
	assert.InEpsilon(t, 0.95*aaac120.UltimateStress(), r.OptimalStress, 1e-9)
}

func TestInfeasibleReturnsNaN(t *testing.T) {
	p := Problem{
		Cable:     aaac120,
		Span:      150,
		States:    config.ClimaticStates{{ID: "I", Temperature: 35, MaxTensionFraction: 0.005}},
		Objective: config.ObjectiveMinSag,
	}
	r := p.Optimize()
	assert.False(t, r.Converged)
	assert.Equal(t, "tension:I", r.Limiter)
	assert.True(t, math.IsNaN(r.OptimalTension))
	assert.True(t, math.IsNaN(r.MaxSag()))

	data, err := json.Marshal(r)
	require.NoError(t, err)
	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsNaN(back.OptimalStress))
	require.Len(t, back.States, 1)
	assert.True(t, math.IsNaN(back.States[0].Sag))
	assert.Equal(t, "I", back.States[0].State)
}

func TestUnequalLevels(t *testing.T) {
	states := config.ClimaticStates{{ID: "I", Temperature: 35, MaxTensionFraction: 0.25}}
	flat := Problem{Cable: aaac120, Span: 150, States: states}
	slope := flat
	slope.LevelPost = 20

	a, _ := flat.Solve(8)
	b, _ := slope.Solve(8)
	assert.InEpsilon(t, a[0].Sag/math.Cos(math.Atan(20.0/150)), b[0].Sag, 1e-12)
}

func TestSolveLine(t *testing.T) {
	cfg := config.Default()
	cfg.Conductor = "AAAC_120"
	cfg.Guard1, cfg.Guard2 = "OPGW_48", "OPGW_48"
	cat := cable.Catalogue{"AAAC_120": aaac120, "OPGW_48": opgw48}

	line, err := SolveLine(&cfg, cat, nil)
	require.NoError(t, err)
	require.Len(t, line.Guards, 2)
	assert.True(t, line.Converged())
	assert.Greater(t, line.Fmax(), 0.0)
	assert.Greater(t, line.GuardFmax(), 0.0)

	cfg.Conductor = "missing"
	_, err = SolveLine(&cfg, cat, nil)
	assert.ErrorIs(t, err, cable.ErrUnknownCable)
}
