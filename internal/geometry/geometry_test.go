package geometry

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/cable"
	"github.com/agerpk/estructural/internal/config"
)

var conductor = cable.Cable{
	ID: "AlAc_300_50", DiameterMM: 24.5, SectionMM2: 353.7, UnitWeight: 1.17,
	UltimateLoad: 10600, ElasticModulus: 7700, ThermalExpansion: 1.89e-5, Material: "AlAc",
}

func baseConfig() config.StructureConfig {
	cfg := config.Default()
	cfg.Conductor = conductor.ID
	cfg.Mechanical.ChainWeight = 50
	return cfg
}

func solve(t *testing.T, cfg config.StructureConfig, fmax float64) *Result {
	t.Helper()
	require.NoError(t, cfg.Validate())
	res, err := Solve(Input{Config: &cfg, Conductor: conductor, Fmax: fmax}, nil)
	require.NoError(t, err)
	return res
}

func structuralWarnings(res *Result) []string {
	var out []string
	for _, w := range res.Warnings {
		for _, key := range []string{"insuficiente", "no conectado", "duplicada", "inexistente", "apantallamiento"} {
			if strings.Contains(w, key) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

func TestOffsetProfile(t *testing.T) {
	var none *OffsetProfile
	assert.Zero(t, none.At(3))

	trap := &OffsetProfile{RefMin: 0, RefMax: 10, Begin: 1, End: 3, Shape: ShapeTrapezoid}
	assert.InDelta(t, 2, trap.At(5), 1e-12)
	assert.InDelta(t, 3, trap.At(20), 1e-12)

	tri := &OffsetProfile{RefMin: 0, RefMax: 10, Begin: 0, End: 2, Shape: ShapeTriangle}
	assert.InDelta(t, 2, tri.At(5), 1e-12)
	assert.InDelta(t, 1, tri.At(7.5), 1e-12)

	rect := &OffsetProfile{RefMin: 0, RefMax: 10, Begin: 0.4, End: 2, Shape: ShapeRect}
	assert.InDelta(t, 0.4, rect.At(9), 1e-12)
}

func TestZones(t *testing.T) {
	t.Run("vertical strip", func(t *testing.T) {
		s := VerticalStrip{X: 0, ZMin: 0, ZMax: 10, HalfWidth: 0.2, Clearance: 1}
		dx, dz, m := s.Distance(2, 5)
		assert.InDelta(t, 1.8, dx, 1e-12)
		assert.Less(t, dz, 0.0)
		assert.InDelta(t, 0.8, m, 1e-12)
		assert.True(t, s.Contains(1, 5))
		// above the top the zone is rounded
		_, _, m = s.Distance(0.2+0.6, 10.8)
		assert.InDelta(t, 0.0, m, 1e-12)
		assert.Equal(t, ZoneColumn, s.Kind())
	})

	t.Run("sloped strip follows its offset", func(t *testing.T) {
		s := VerticalStrip{
			X: 0, ZMin: 0, ZMax: 10, HalfWidth: 0, Clearance: 0.5,
			Offset: &OffsetProfile{RefMin: 0, RefMax: 10, End: 5, Shape: ShapeTrapezoid},
		}
		assert.True(t, s.Contains(2.5, 5))
		assert.False(t, s.Contains(0, 5))
	})

	t.Run("horizontal strip", func(t *testing.T) {
		s := HorizontalStrip{XMin: 0, XMax: 3, Z: 10, HalfHeight: 0.1, Clearance: 1}
		_, _, m := s.Distance(2, 8)
		assert.InDelta(t, 0.9, m, 1e-12)
		_, _, m = s.Distance(4, 10)
		assert.InDelta(t, 0, m, 1e-12)
		assert.Equal(t, ZoneCrossArm, s.Kind())
	})

	t.Run("circle with cutoff", func(t *testing.T) {
		cut := 20.0
		c := Circle{CX: 0, CZ: 20, Radius: 2, ZCutoff: &cut}
		assert.True(t, c.Contains(0, 19))
		assert.False(t, c.Contains(0, 21))
		_, _, m := c.Distance(3, 16)
		assert.InDelta(t, 3, m, 1e-12)
	})
}

func TestGraphConnector(t *testing.T) {
	g := NewGraph()
	g.Add(Node{Name: NodeBase, Kind: KindBase})
	g.Add(Node{Name: "A", Z: 10, Kind: KindCross})
	g.ChainAxis(math.Inf(1))
	g.Connect("A", NodeBase, ConnColumn)
	assert.Len(t, g.Connections(), 1)

	// a node inserted in between splits the member
	g.Add(Node{Name: "M", Z: 5, Kind: KindWind})
	g.ChainAxis(math.Inf(1))
	assert.ElementsMatch(t, []Connection{
		{From: NodeBase, To: "M", Kind: ConnColumn},
		{From: "M", To: "A", Kind: ConnColumn},
	}, g.Connections())
	assert.Empty(t, g.Check(NodeBase))

	g.Add(Node{Name: "LOOSE", X: 3, Z: 3, Kind: KindGeneral})
	assert.Len(t, g.Check(NodeBase), 1)
}

func TestNodeRoundTrip(t *testing.T) {
	n := Node{
		Name: "C1_R", X: 3.123456789012, Z: 15.987654321, Kind: KindConductor,
		CableID: "AAAC_120", Rotation: [3]float64{0, 0, 12.5}, Level: 1,
	}
	data, err := json.Marshal(n)
	require.NoError(t, err)
	var back Node
	require.NoError(t, json.Unmarshal(data, &back))
	assert.InDelta(t, n.X, back.X, 1e-9)
	assert.InDelta(t, n.Z, back.Z, 1e-9)
	assert.Equal(t, n, back)
}

func TestTriangularSimple132kV(t *testing.T) {
	cfg := baseConfig()
	cfg.Mechanical.AutoAdjustGuardArm = true

	// chain weight chosen to put the swing in the 40–55° band
	cfg.Mechanical.ChainWeight = 0
	wind, weight, err := SwingLoads(&cfg, conductor)
	require.NoError(t, err)
	cfg.Mechanical.ChainWeight = wind/math.Tan(47.5*math.Pi/180) - weight
	require.Greater(t, cfg.Mechanical.ChainWeight, 0.0)

	res := solve(t, cfg, 6)
	p := res.Params
	assert.InDelta(t, 47.5, p.ThetaMax, 1e-6)
	assert.Equal(t, 0.65, p.K)
	assert.InDelta(t, 0.65*math.Sqrt(6+2.5)+132.0/150, p.PhaseDistance, 1e-9)

	minH1a := 5.9 + 0.01*(132/math.Sqrt(3)-22) + 6 + 2.5 + cfg.Mechanical.HADD
	assert.GreaterOrEqual(t, res.Dimensions.H1a, minH1a-1e-9)
	assert.InDelta(t, minH1a, res.Dimensions.H1a, 1e-9)

	for _, name := range []string{NodeBase, "CROSS_H1", "CROSS_H2", "C1_L", "C1_R", "C2_R", NodeTop, "HG1", "HG2", NodeWind} {
		_, ok := res.Node(name)
		assert.True(t, ok, name)
	}
	c1l, _ := res.Node("C1_L")
	c1r, _ := res.Node("C1_R")
	assert.InDelta(t, -c1l.X, c1r.X, 1e-12)
	assert.GreaterOrEqual(t, c1r.X-c1l.X, p.PhaseDistance-1e-9)

	hg1, _ := res.Node("HG1")
	hg2, _ := res.Node("HG2")
	assert.InDelta(t, -hg1.X, hg2.X, 1e-12)
	assert.InDelta(t, res.Dimensions.LmenHG, hg2.X, 1e-12)
	assert.True(t, res.Shielded)

	c2r, _ := res.Node("C2_R")
	assert.Greater(t, c2r.Z, c1r.Z)
	assert.Greater(t, hg2.Z, c2r.Z)

	assert.Empty(t, structuralWarnings(res))
}

func TestGuardArmMinimisesHeight(t *testing.T) {
	cfg := baseConfig()
	cfg.Mechanical.AutoAdjustGuardArm = true
	auto := solve(t, cfg, 6)

	cfg.Mechanical.AutoAdjustGuardArm = false
	fixed := solve(t, cfg, 6)

	assert.LessOrEqual(t, auto.Dimensions.HHG, fixed.Dimensions.HHG+1e-9)
	assert.InDelta(t, cfg.Mechanical.MinArmGuard, fixed.Dimensions.LmenHG, 1e-12)
}

func TestClearanceAcrossLayouts(t *testing.T) {
	cases := []struct {
		name        string
		disposition aea.Disposition
		circuits    config.Circuits
		guards      int
		centred     bool
		typ         aea.StructureType
	}{
		{"vertical simple", aea.DispositionVertical, config.CircuitSimple, 1, true, aea.StructureSuspension},
		{"vertical double", aea.DispositionVertical, config.CircuitDouble, 2, false, aea.StructureSuspension},
		{"triangular simple one guard", aea.DispositionTriangular, config.CircuitSimple, 1, false, aea.StructureSuspension},
		{"triangular double", aea.DispositionTriangular, config.CircuitDouble, 2, false, aea.StructureSuspension},
		{"horizontal", aea.DispositionHorizontal, config.CircuitSimple, 2, false, aea.StructureSuspension},
		{"horizontal centred guard", aea.DispositionHorizontal, config.CircuitSimple, 1, true, aea.StructureSuspension},
		{"retention without guard", aea.DispositionTriangular, config.CircuitSimple, 0, false, aea.StructureRetention},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Disposition = tc.disposition
			cfg.Circuits = tc.circuits
			cfg.GuardCount = tc.guards
			cfg.Mechanical.GuardCentered = tc.centred
			cfg.Type = tc.typ
			res := solve(t, cfg, 5)

			assert.Empty(t, structuralWarnings(res))
			for kind, m := range res.Clearances {
				assert.GreaterOrEqual(t, m, -Tolerance, string(kind))
			}
			conductors := res.NodesOfKind(KindConductor)
			want := 3
			if tc.circuits == config.CircuitDouble {
				want = 6
			}
			assert.Len(t, conductors, want)
			assert.Len(t, res.NodesOfKind(KindGuard), tc.guards)
			for _, c := range conductors {
				assert.Equal(t, conductor.ID, c.CableID)
			}
			assert.Greater(t, res.Dimensions.Height, res.Dimensions.H1a)
		})
	}
}

func TestHorizontalTopology(t *testing.T) {
	cfg := baseConfig()
	cfg.Disposition = aea.DispositionHorizontal
	res := solve(t, cfg, 5)

	y, ok := res.Node(NodeY)
	require.True(t, ok)
	yl, _ := res.Node(NodeYL)
	yr, _ := res.Node(NodeYR)
	c1, _ := res.Node("C1")
	c2, _ := res.Node("C2")
	c3, _ := res.Node("C3")

	assert.Less(t, y.Z, c2.Z)
	assert.InDelta(t, 0, c2.X, 1e-12)
	assert.InDelta(t, -yl.X, yr.X, 1e-12)
	assert.Less(t, c1.X, yl.X)
	assert.Greater(t, c3.X, yr.X)
	assert.GreaterOrEqual(t, c3.X-c2.X, res.Params.PhaseDistance-1e-9)

	v, ok := res.Node(NodeWind)
	require.True(t, ok)
	assert.InDelta(t, 0, v.X, 1e-12)
	assert.Greater(t, v.Z, 0.0)
	assert.Less(t, v.Z, y.Z)

	g := res.Graph()
	assert.Empty(t, g.Check(NodeBase))
	for _, c := range g.Connections() {
		if c.Kind != ConnColumn {
			continue
		}
		a, _ := g.Node(c.From)
		b, _ := g.Node(c.To)
		assert.Greater(t, math.Hypot(a.X-b.X, a.Z-b.Z), 1e-6, c.From+"-"+c.To)
	}
}

func TestIcePhaseShift(t *testing.T) {
	cfg := baseConfig()
	plain := solve(t, cfg, 6)

	cfg.IceShift = config.IcePhaseShift{Enabled: true, Arms: config.ShiftSecond, Extra: 1.0}
	shifted := solve(t, cfg, 6)

	assert.InDelta(t, plain.Dimensions.Lmen2+1.0, shifted.Dimensions.Lmen2, 1e-9)
	assert.LessOrEqual(t, shifted.Dimensions.H2a, plain.Dimensions.H2a+1e-9)
	assert.InDelta(t, plain.Dimensions.Lmen1, shifted.Dimensions.Lmen1, 1e-12)
	assert.Empty(t, structuralWarnings(shifted))
}

func TestIcePhaseShiftWalksUpperLevelsDown(t *testing.T) {
	cfg := baseConfig()
	cfg.Mechanical.HADDBetweenAnchors = 1.0
	plain := solve(t, cfg, 6)

	// only the first level is shifted, the second still walks down
	cfg.IceShift = config.IcePhaseShift{Enabled: true, Arms: config.ShiftFirst, Extra: 1.5}
	shifted := solve(t, cfg, 6)

	assert.InDelta(t, plain.Dimensions.Lmen1+1.5, shifted.Dimensions.Lmen1, 1e-9)
	assert.GreaterOrEqual(t, plain.Dimensions.H2a, plain.Dimensions.H1a+cfg.Mechanical.HADDBetweenAnchors)
	assert.Less(t, shifted.Dimensions.H2a, plain.Dimensions.H2a)
	assert.Greater(t, shifted.Dimensions.H2a, shifted.Dimensions.H1a)
	for kind, m := range shifted.Clearances {
		assert.GreaterOrEqual(t, m, -Tolerance, string(kind))
	}
}

func TestArmAllowance(t *testing.T) {
	t.Run("triangular", func(t *testing.T) {
		cfg := baseConfig()
		plain := solve(t, cfg, 6)
		cfg.Mechanical.HADDArm = 1.0
		longer := solve(t, cfg, 6)

		assert.InDelta(t, plain.Dimensions.Lmen1+1.0, longer.Dimensions.Lmen1, 1e-9)
		assert.InDelta(t, plain.Dimensions.Lmen2+1.0, longer.Dimensions.Lmen2, 1e-9)
		c1r, _ := longer.Node("C1_R")
		assert.InDelta(t, longer.Dimensions.Lmen1, c1r.X, 1e-9)
	})

	t.Run("vertical", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Disposition = aea.DispositionVertical
		plain := solve(t, cfg, 5)
		cfg.Mechanical.HADDArm = 0.5
		longer := solve(t, cfg, 5)

		assert.InDelta(t, plain.Dimensions.Lmen1+0.5, longer.Dimensions.Lmen1, 1e-9)
		assert.GreaterOrEqual(t, longer.Dimensions.Lmen2, longer.Dimensions.Lmen1-1e-9)
	})

	t.Run("horizontal", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Disposition = aea.DispositionHorizontal
		plain := solve(t, cfg, 5)
		cfg.Mechanical.HADDArm = 1.0
		longer := solve(t, cfg, 5)

		assert.InDelta(t, plain.Dimensions.Lmen1+1.0, longer.Dimensions.Lmen1, 1e-9)
		assert.InDelta(t, plain.Dimensions.LegOffset, longer.Dimensions.LegOffset, 1e-12)
	})
}

func TestSuboptimalWarning(t *testing.T) {
	cfg := baseConfig()
	cfg.Mechanical.HADD = 1.2
	res := solve(t, cfg, 6)
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "por encima de su altura mínima") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRetentionHasNoSwing(t *testing.T) {
	cfg := baseConfig()
	cfg.Type = aea.StructureRetention
	res := solve(t, cfg, 6)
	assert.Zero(t, res.Params.ThetaMax)
	assert.Equal(t, 0.60, res.Params.K)
}

func TestUnconvergedSagIsAnError(t *testing.T) {
	cfg := baseConfig()
	_, err := Solve(Input{Config: &cfg, Conductor: conductor, Fmax: math.NaN()}, nil)
	assert.Error(t, err)
}
