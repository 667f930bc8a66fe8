package loads

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/cable"
	"github.com/agerpk/estructural/internal/config"
	"github.com/agerpk/estructural/internal/geometry"
	"github.com/agerpk/estructural/internal/mechanics"
)

var cables = cable.Catalogue{
	"AlAc_300_50": {
		ID: "AlAc_300_50", DiameterMM: 24.5, SectionMM2: 353.7, UnitWeight: 1.17,
		UltimateLoad: 10600, ElasticModulus: 7700, ThermalExpansion: 1.89e-5, Material: "AlAc",
	},
	"OPGW_48": {
		ID: "OPGW_48", DiameterMM: 14.4, SectionMM2: 96, UnitWeight: 0.55,
		UltimateLoad: 7500, ElasticModulus: 12000, ThermalExpansion: 1.5e-5, Material: "OPGW",
	},
}

var conductorTension = map[string]float64{"I": 1500, "II": 2500, "III": 2800, "IV": 2600, "V": 2000}

const guardShare = 0.6

func lineResult(cfg *config.StructureConfig, scale float64) mechanics.Result {
	r := mechanics.Result{Converged: true}
	for _, s := range cfg.States {
		r.States = append(r.States, mechanics.StateResult{State: s.ID, Tension: conductorTension[s.ID] * scale})
	}
	return r
}

func support() *geometry.Result {
	return &geometry.Result{
		Dimensions: geometry.Dimensions{Height: 20},
		Nodes: []geometry.Node{
			{Name: geometry.NodeBase, Kind: geometry.KindBase},
			{Name: geometry.NodeWind, Z: 13.3, Kind: geometry.KindWind},
			{Name: "CROSS_H1", Z: 15, Kind: geometry.KindCross},
			{Name: "C1_L", X: -2, Z: 15, Kind: geometry.KindConductor, CableID: "AlAc_300_50", Level: 1},
			{Name: "C1_R", X: 2, Z: 15, Kind: geometry.KindConductor, CableID: "AlAc_300_50", Level: 1},
			{Name: "CROSS_H2", Z: 18, Kind: geometry.KindCross},
			{Name: "C2_R", X: 2, Z: 18, Kind: geometry.KindConductor, CableID: "AlAc_300_50", Level: 2},
			{Name: geometry.NodeTop, Z: 20, Kind: geometry.KindGeneral},
			{Name: "HG1", X: -1, Z: 20, Kind: geometry.KindGuard, CableID: "OPGW_48"},
			{Name: "HG2", X: 1, Z: 20, Kind: geometry.KindGuard, CableID: "OPGW_48"},
		},
	}
}

func newInput(t *testing.T, mutate func(*config.StructureConfig)) Input {
	t.Helper()
	cfg := config.Default()
	cfg.Type = aea.StructureRetention
	cfg.Mechanical.ChainWeight = 40
	cfg.Mechanical.StructureWeight = 3500
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())
	return Input{
		Config:   &cfg,
		Cables:   cables,
		Geometry: support(),
		Mechanics: &mechanics.LineResult{
			Conductor: lineResult(&cfg, 1),
			Guards:    []mechanics.Result{lineResult(&cfg, guardShare), lineResult(&cfg, guardShare)},
		},
		Hypotheses: aea.DefaultCatalogue(),
	}
}

func compute(t *testing.T, in Input) *Result {
	t.Helper()
	res, err := Compute(in, nil)
	require.NoError(t, err)
	return res
}

func reaction(t *testing.T, res *Result, code string) Reaction {
	t.Helper()
	r, ok := res.Reaction(code)
	require.True(t, ok, code)
	return r
}

func deadLoad(in Input) float64 {
	L := in.Config.Span
	c := cables["AlAc_300_50"]
	g := cables["OPGW_48"]
	return 3*c.UnitWeight*L + 2*g.UnitWeight*L + 3*in.Config.Mechanical.ChainWeight + in.Config.Mechanical.StructureWeight
}

func TestRetentionReactions(t *testing.T) {
	in := newInput(t, nil)
	res := compute(t, in)

	a0 := reaction(t, res, "A0")
	assert.InDelta(t, 0, a0.Tx, 1e-9)
	assert.InDelta(t, 0, a0.Ty, 1e-9)
	assert.InDelta(t, deadLoad(in), a0.Fz, 1e-6)

	a2 := reaction(t, res, "A2")
	assert.Greater(t, a2.Tx, 0.0)
	assert.InDelta(t, 0, a2.Ty, 1e-6)
	assert.InDelta(t, a0.Fz, a2.Fz, 1e-6)

	var bound float64
	for _, n := range in.Geometry.Nodes {
		if n.IsCable() {
			bound += conductorTension["III"] * math.Abs(n.X)
		}
	}
	assert.LessOrEqual(t, math.Abs(a2.Mz), bound+1e-6)
	assert.InDelta(t, 0, a2.Angle, 1e-6)
	assert.Greater(t, a2.EffectiveHeight, 0.0)
	assert.InDelta(t, a2.My/20, a2.TopFx, 1e-9)
	assert.Equal(t, geometry.NodeTop, a2.TopNodeName)
}

func TestReactionsComplete(t *testing.T) {
	in := newInput(t, nil)
	res := compute(t, in)

	require.Len(t, res.Reactions, len(in.Hypotheses))
	for i, h := range in.Hypotheses {
		assert.Equal(t, h.Code, res.Reactions[i].Code)
		assert.True(t, res.Reactions[i].Finite(), h.Code)
	}
	assert.Equal(t, in.Hypotheses.Codes(), res.Hypotheses)
	assert.Len(t, res.Nodes, len(in.Geometry.Nodes))
}

func TestBrokenConductor(t *testing.T) {
	t.Run("full pull", func(t *testing.T) {
		res := compute(t, newInput(t, nil))
		a5 := reaction(t, res, "A5")
		tv := conductorTension["V"]
		assert.InDelta(t, tv, a5.Ty, 1e-9)
		// C1_L is the first conductor, at x = -2
		assert.InDelta(t, -2*tv, a5.Mz, 1e-9)
		assert.InDelta(t, -15*tv, a5.Mx, 1e-6)
	})

	t.Run("reduced pull", func(t *testing.T) {
		res := compute(t, newInput(t, func(c *config.StructureConfig) { c.Loads.ReduceBreak = true }))
		assert.InDelta(t, 0.8*conductorTension["V"], reaction(t, res, "A5").Ty, 1e-9)

		res = compute(t, newInput(t, func(c *config.StructureConfig) {
			c.Loads.ReduceBreak = true
			c.Mechanical.ChainLength = 3
		}))
		assert.InDelta(t, 0.85*conductorTension["V"], reaction(t, res, "A5").Ty, 1e-9)
	})

	t.Run("broken guard", func(t *testing.T) {
		res := compute(t, newInput(t, nil))
		a6 := reaction(t, res, "A6")
		assert.InDelta(t, guardShare*conductorTension["V"], a6.Ty, 1e-9)
	})
}

func TestUnbalancedPull(t *testing.T) {
	res := compute(t, newInput(t, nil))
	a7 := reaction(t, res, "A7")
	total := conductorTension["II"] * (3 + 2*guardShare)
	assert.InDelta(t, 0.2*total, a7.Ty, 1e-9)
}

func TestDeviation(t *testing.T) {
	alpha := 20.0
	in := newInput(t, func(c *config.StructureConfig) { c.DeviationAngle = alpha })
	res := compute(t, in)

	b2 := reaction(t, res, "B2")
	total := conductorTension["IV"] * (3 + 2*guardShare)
	assert.InDelta(t, 2*total*math.Sin(alpha*math.Pi/360), b2.Tx, 1e-6)
	assert.InDelta(t, 0, b2.Ty, 1e-9)

	// B1 has no deviation magnitude
	assert.InDelta(t, 0, reaction(t, res, "B1").Tx, 1e-9)
}

func TestTerminalUnilateralPull(t *testing.T) {
	res := compute(t, newInput(t, func(c *config.StructureConfig) { c.Type = aea.StructureTerminal }))

	a0 := reaction(t, res, "A0")
	assert.InDelta(t, 0, a0.Ty, 1e-9)

	a2 := reaction(t, res, "A2")
	assert.InDelta(t, conductorTension["III"]*(3+2*guardShare), a2.Ty, 1e-6)
}

func TestIceAddsWeight(t *testing.T) {
	in := newInput(t, nil)
	res := compute(t, in)
	state, _ := in.Config.States.Get("IV")
	L := in.Config.Span
	ice := 3*cables["AlAc_300_50"].IceWeight(state.IceThickness)*L +
		2*cables["OPGW_48"].IceWeight(state.IceThickness)*L
	assert.InDelta(t, deadLoad(in)+ice, reaction(t, res, "B1").Fz, 1e-6)
}

func TestWindOnStructure(t *testing.T) {
	res := compute(t, newInput(t, nil))
	v, ok := res.Node(geometry.NodeWind)
	require.True(t, ok)

	a3 := v.Local("A3")
	assert.InDelta(t, 0, a3[0], 1e-9)
	assert.Greater(t, a3[1], 0.0)

	a2 := v.Local("A2")
	assert.Greater(t, a2[0], 0.0)
	assert.InDelta(t, a2[0], a3[1], 1e-9)

	// A3 carries no cable wind
	c, _ := res.Node("C1_R")
	for _, l := range c.Loads {
		if l.Name == LoadWind {
			_, ok := l.Values["A3"]
			assert.False(t, ok)
		}
	}
}

func TestNotConverged(t *testing.T) {
	in := newInput(t, nil)
	for i := range in.Mechanics.Conductor.States {
		in.Mechanics.Conductor.States[i].Tension = math.NaN()
	}
	_, err := Compute(in, nil)
	assert.ErrorIs(t, err, ErrNotConverged)
}

func TestUnknownState(t *testing.T) {
	in := newInput(t, nil)
	in.Hypotheses = aea.Catalogue{{Code: "X1", State: "IX", Magnitudes: map[aea.Magnitude]float64{aea.MagWeight: 1}}}
	_, err := Compute(in, nil)
	assert.Error(t, err)
}

func TestNodeLoadsMerge(t *testing.T) {
	var n NodeLoads
	n.Add(LoadWeight, "A0", Force(0, 0, -10))
	n.Add(LoadWeight, "A0", Force(0, 0, -5))
	n.Add(LoadWind, "A0", Force(3, 0, 0))
	assert.Len(t, n.Loads, 2)
	assert.Equal(t, Vector{3, 0, -15}, n.Local("A0"))
}

func TestRotate(t *testing.T) {
	v := Rotate([3]float64{0, 0, 90}, Vector{1, 0, 0, 0, 0, 2})
	assert.InDelta(t, 0, v[0], 1e-12)
	assert.InDelta(t, 1, v[1], 1e-12)
	assert.InDelta(t, 2, v[5], 1e-12)

	v = Rotate([3]float64{90, 0, 0}, Vector{0, 1, 0})
	assert.InDelta(t, 1, v[2], 1e-12)

	n := NodeLoads{Rotation: [3]float64{0, 0, 90}}
	n.Add(LoadPull, "A5", Force(0, 100, 0))
	g := n.Global("A5")
	assert.InDelta(t, -100, g[0], 1e-9)
	assert.Equal(t, Vector{0, 100, 0}, n.Local("A5"))
}

func TestGoverning(t *testing.T) {
	rs := []Reaction{{Code: "A0", Tres: 1}, {Code: "A2", Tres: 5}, {Code: "A4", Tres: 3}}
	g, ok := Governing(rs, func(r Reaction) float64 { return r.Tres })
	require.True(t, ok)
	assert.Equal(t, "A2", g.Code)
	_, ok = Governing(nil, func(r Reaction) float64 { return r.Tres })
	assert.False(t, ok)
}
