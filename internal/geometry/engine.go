package geometry

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/cable"
	"github.com/agerpk/estructural/internal/config"
)

const (
	probeStep   = 0.01 // m
	maxWalkStep = 10000
	legDepth    = 1.0 // m of clear column between the Y node and the lowest chain
)

// Node names
const (
	NodeBase = "BASE"
	NodeTop  = "TOP"
	NodeWind = "V"
	NodeY    = "Y"
	NodeYL   = "YL"
	NodeYR   = "YR"
)

// Input is what the geometry engine consumes from the configuration and CMC
type Input struct {
	Config    *config.StructureConfig
	Conductor cable.Cable
	Fmax      float64 // conductor maximum vertical sag (m)
}

// Dimensions are the main heights and arm lengths of the support (m)
type Dimensions struct {
	H1a       float64 `json:"h1a"`
	H2a       float64 `json:"h2a"`
	H3a       float64 `json:"h3a"`
	Lmen1     float64 `json:"lmen1"`
	Lmen2     float64 `json:"lmen2"`
	Lmen3     float64 `json:"lmen3"`
	LmenOuter float64 `json:"lmen_exterior,omitempty"`
	LegOffset float64 `json:"x_pata,omitempty"`
	HY        float64 `json:"h_y,omitempty"`
	HHG       float64 `json:"hhg"`
	LmenHG    float64 `json:"lmenhg"`
	Height    float64 `json:"altura_total"`
}

// phase is a conductor slot of a cross-arm level
type phase struct {
	name  string
	side  float64 // −1 left, +1 right
	outer bool
}

type engine struct {
	cfg      *config.StructureConfig
	p        Params
	g        *Graph
	swinging bool
	armHalf  float64
	colHalf  float64
	dims     Dimensions
	minima   map[string]float64
	warnings []string
	logger   *zap.Logger
}

// Solve places every node of the support and verifies the clearances.
// Clearance problems become warnings; only unusable inputs return an error.
func Solve(in Input, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := ComputeParams(in.Config, in.Conductor, in.Fmax)
	if err != nil {
		return nil, err
	}
	e := &engine{
		cfg:      in.Config,
		p:        p,
		g:        NewGraph(),
		swinging: in.Config.Type.HasSwingingChain(),
		armHalf:  in.Config.Mechanical.CrossArmWidth / 2,
		colHalf:  in.Config.Mechanical.ColumnDiameter / 2,
		minima:   make(map[string]float64),
		logger:   logger,
	}
	logger.Debug("geometry parameters",
		zap.Float64("theta_max", p.ThetaMax),
		zap.Float64("k", p.K),
		zap.Float64("d_fases", p.PhaseDistance),
		zap.Float64("d_hg", p.GuardDistance),
		zap.Float64("s", p.S))

	e.stage0()
	if in.Config.Disposition == aea.DispositionHorizontal {
		e.stage1Horizontal()
	} else {
		e.stage1()
		if in.Config.Levels() >= 2 {
			e.upperLevel(2)
		}
		if in.Config.Levels() >= 3 {
			e.upperLevel(3)
		}
	}
	e.stage4()
	e.windNode()

	res := e.result()
	e.verify(res)
	for _, w := range res.Warnings {
		logger.Warn("geometry", zap.String("warning", w))
	}
	return res, nil
}

func (e *engine) warn(format string, args ...any) {
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
}

func (e *engine) stage0() {
	e.g.Add(Node{Name: NodeBase, Kind: KindBase})
}

// layout returns the conductor slots of a level
func (e *engine) layout(level int) []phase {
	double := e.cfg.Circuits == config.CircuitDouble
	name := func(suffix string) string { return fmt.Sprintf("C%d_%s", level, suffix) }
	switch e.cfg.Disposition {
	case aea.DispositionVertical:
		if double {
			return []phase{{name("L"), -1, false}, {name("R"), 1, false}}
		}
		return []phase{{name("R"), 1, false}}
	case aea.DispositionTriangular:
		if level == 1 {
			out := []phase{{name("L"), -1, false}, {name("R"), 1, false}}
			if double {
				out = append(out, phase{name("LE"), -1, true}, phase{name("RE"), 1, true})
			}
			return out
		}
		if double {
			return []phase{{name("L"), -1, false}, {name("R"), 1, false}}
		}
		return []phase{{name("R"), 1, false}}
	}
	return nil
}

func crossName(level int) string {
	return fmt.Sprintf("CROSS_H%d", level)
}

// placeLevel adds the cross node and the conductors of a level to g.
// Outer phases are skipped when outer is zero.
func (e *engine) placeLevel(g *Graph, level int, z, inner, outer float64) []string {
	cross := crossName(level)
	g.Add(Node{Name: cross, Z: z, Kind: KindCross, Level: level})
	var names []string
	for _, ph := range e.layout(level) {
		x := inner
		if ph.outer {
			if outer <= 0 {
				continue
			}
			x = outer
		}
		g.Add(Node{
			Name: ph.name, X: ph.side * x, Z: z, Kind: KindConductor,
			CableID: e.cfg.Conductor, Level: level,
		})
		if ph.outer {
			g.Connect(fmt.Sprintf("C%d_%s", level, sideSuffix(ph.side)), ph.name, ConnCrossbar)
		} else {
			g.Connect(cross, ph.name, ConnArm)
		}
		names = append(names, ph.name)
	}
	g.ChainAxis(math.Inf(1))
	return names
}

func sideSuffix(side float64) string {
	if side < 0 {
		return "L"
	}
	return "R"
}

func (e *engine) armExtra(level int) float64 {
	if e.cfg.IceShift.Shifts(level) {
		return e.cfg.IceShift.Extra
	}
	return 0
}

// search walks x from start in probe steps until probe(x) holds
func (e *engine) search(label string, start float64, probe func(x float64) bool) float64 {
	limit := e.cfg.Mechanical.MaxArmSearchIterations
	x := start
	for i := 0; i < limit; i++ {
		x = start + float64(i)*probeStep
		if probe(x) {
			return x
		}
	}
	e.warn("búsqueda de %s sin solución en %d iteraciones; se adopta %.2f m", label, limit, x)
	return x
}

func (e *engine) stage1() {
	m := e.cfg.Mechanical
	h1a := e.p.BaseHeight + e.p.Fmax + m.ChainLength + m.HADD
	e.minima["1"] = h1a - m.HADD
	e.dims.H1a = h1a

	innerOnly := func(L float64) bool {
		g := e.g.Clone()
		return e.clear(g, e.placeLevel(g, 1, h1a, L, 0))
	}
	L := e.search("LMEN1", 0, innerOnly)
	L = math.Max(L, m.MinArmConductor) + m.HADDArm + e.armExtra(1)
	e.dims.Lmen1 = L

	outer := L
	if e.hasOuter(1) {
		outer = e.search("LMEN exterior", L+probeStep, func(x float64) bool {
			g := e.g.Clone()
			e.placeLevel(g, 1, h1a, L, x)
			return e.clear(g, e.conductorNames(g))
		})
		e.dims.LmenOuter = outer
	}
	e.placeLevel(e.g, 1, h1a, L, outer)
}

func (e *engine) hasOuter(level int) bool {
	for _, ph := range e.layout(level) {
		if ph.outer {
			return true
		}
	}
	return false
}

// upperLevel runs stage 2 or 3: first height guess, arm search, then the
// height is raised until clear and, with the ice phase shift, walked down
func (e *engine) upperLevel(level int) {
	m := e.cfg.Mechanical
	below := e.dims.H1a
	if level == 3 {
		below = e.dims.H2a
	}
	theoretical := below + math.Max(e.p.PhaseDistance, e.p.SRest+m.ChainLength)
	h := theoretical + m.HADDBetweenAnchors
	e.minima[fmt.Sprint(level)] = theoretical

	label := fmt.Sprintf("LMEN%d", level)
	probe := func(L, z float64) bool {
		g := e.g.Clone()
		names := e.placeLevel(g, level, z, L, L)
		return e.clear(g, append(names, e.conductorNames(e.g)...))
	}
	L := e.search(label, 0, func(x float64) bool { return probe(x, h) })
	L = math.Max(L, m.MinArmConductor)
	if e.cfg.Disposition == aea.DispositionVertical {
		// a vertical support keeps the phases plumb
		L = math.Max(L, e.dims.Lmen1-m.HADDArm-e.armExtra(1))
	}
	L += m.HADDArm + e.armExtra(level)

	raised := 0
	for !probe(L, h) && raised < maxWalkStep {
		h += probeStep
		raised++
	}
	if raised == maxWalkStep {
		e.warn("nivel %d: no se encontró altura libre de interferencias", level)
	}
	// with the ice phase shift every upper level walks down to its lowest clear height
	if e.cfg.IceShift.Enabled {
		for i := 0; i < maxWalkStep && h-probeStep > below && probe(L, h-probeStep); i++ {
			h -= probeStep
		}
	}

	e.placeLevel(e.g, level, h, L, L)
	switch level {
	case 2:
		e.dims.H2a, e.dims.Lmen2 = h, L
	case 3:
		e.dims.H3a, e.dims.Lmen3 = h, L
	}
}

// stage1Horizontal builds the Y topology: main column to Y, two legs to the
// cross-bar, C2 centred between the legs, C1 and C3 outboard
func (e *engine) stage1Horizontal() {
	m := e.cfg.Mechanical
	h1a := e.p.BaseHeight + e.p.Fmax + m.ChainLength + m.HADD
	e.minima["1"] = h1a - m.HADD
	e.dims.H1a = h1a

	sMax := math.Max(e.p.SRest, math.Max(e.p.SStorm, e.p.SMax))
	hy := math.Max(h1a-m.ChainLength-sMax-legDepth, h1a/2)
	e.dims.HY = hy

	legs := func(g *Graph, xl float64) {
		g.Add(Node{Name: NodeY, Z: hy, Kind: KindCross})
		g.Add(Node{Name: NodeYL, X: -xl, Z: h1a, Kind: KindCross, Level: 1})
		g.Add(Node{Name: NodeYR, X: xl, Z: h1a, Kind: KindCross, Level: 1})
		g.Add(Node{Name: "C2", Z: h1a, Kind: KindConductor, CableID: e.cfg.Conductor, Level: 1})
		g.ChainAxis(hy)
		g.Connect(NodeY, NodeYL, ConnColumn)
		g.Connect(NodeY, NodeYR, ConnColumn)
		g.Connect(NodeYL, "C2", ConnCrossbar)
		g.Connect("C2", NodeYR, ConnCrossbar)
	}
	xl := e.search("pata Y", 0, func(x float64) bool {
		g := e.g.Clone()
		legs(g, x)
		return e.clear(g, []string{"C2"})
	})
	e.dims.LegOffset = xl
	legs(e.g, xl)

	outboard := func(g *Graph, L float64) {
		g.Add(Node{Name: "C1", X: -L, Z: h1a, Kind: KindConductor, CableID: e.cfg.Conductor, Level: 1})
		g.Add(Node{Name: "C3", X: L, Z: h1a, Kind: KindConductor, CableID: e.cfg.Conductor, Level: 1})
		g.Connect(NodeYL, "C1", ConnArm)
		g.Connect(NodeYR, "C3", ConnArm)
	}
	L := e.search("LMEN1", xl, func(x float64) bool {
		g := e.g.Clone()
		outboard(g, x)
		return e.clear(g, []string{"C1", "C2", "C3"})
	})
	L = math.Max(L, m.MinArmConductor) + m.HADDArm + e.armExtra(1)
	e.dims.Lmen1 = L
	outboard(e.g, L)
}

func (e *engine) conductorNames(g *Graph) []string {
	var out []string
	for _, n := range g.nodes {
		if n.Kind == KindConductor {
			out = append(out, n.Name)
		}
	}
	return out
}

func (e *engine) conductors() []Node {
	var out []Node
	for _, n := range e.g.nodes {
		if n.Kind == KindConductor {
			out = append(out, n)
		}
	}
	return out
}

// requiredGuardHeight is the lowest guard height that shields every conductor
// within the cone and keeps D_hg, each conductor protected by its nearest guard
func (e *engine) requiredGuardHeight(guards []float64, conds []Node) float64 {
	tan := math.Tan(e.cfg.Mechanical.ShieldAngle * math.Pi / 180)
	d := e.p.GuardDistance
	var h float64
	for _, c := range conds {
		dx := math.Inf(1)
		for _, xg := range guards {
			dx = math.Min(dx, math.Abs(c.X-xg))
		}
		req := c.Z + dx/tan
		if dx < d {
			req = math.Max(req, c.Z+math.Sqrt(d*d-dx*dx))
		}
		h = math.Max(h, req)
	}
	return h
}

// bestGuardArm returns the arm length in [min, max|x_c|] giving the lowest guard
func (e *engine) bestGuardArm(guards func(x float64) []float64, conds []Node) (float64, float64) {
	lo := e.cfg.Mechanical.MinArmGuard
	if !e.cfg.Mechanical.AutoAdjustGuardArm {
		return lo, e.requiredGuardHeight(guards(lo), conds)
	}
	var hi float64
	for _, c := range conds {
		hi = math.Max(hi, math.Abs(c.X))
	}
	bestX, bestH := lo, e.requiredGuardHeight(guards(lo), conds)
	for i := 1; lo+float64(i)*probeStep <= hi+1e-9; i++ {
		x := lo + float64(i)*probeStep
		if h := e.requiredGuardHeight(guards(x), conds); h < bestH-1e-12 {
			bestX, bestH = x, h
		}
	}
	return bestX, bestH
}

func (e *engine) stage4() {
	count := e.cfg.GuardCount
	if count == 0 {
		return
	}
	conds := e.conductors()
	var x, h float64
	centred := count == 1 && e.cfg.Mechanical.GuardCentered
	switch {
	case centred:
		x, h = 0, e.requiredGuardHeight([]float64{0}, conds)
	case count == 2:
		x, h = e.bestGuardArm(func(x float64) []float64 { return []float64{-x, x} }, conds)
	default:
		// single off-axis guard opposite the level-2 phase
		var near []Node
		for _, c := range conds {
			if c.X <= 0 {
				near = append(near, c)
			}
		}
		x, h = e.bestGuardArm(func(x float64) []float64 { return []float64{-x} }, near)
		for i := 0; i < maxWalkStep && h < e.requiredGuardHeight([]float64{-x}, conds)-1e-12; i++ {
			h += probeStep
			x = math.Max(0, x-probeStep)
		}
	}
	e.minima["HG"] = h
	h += e.cfg.Mechanical.HADDGuard
	e.dims.HHG, e.dims.LmenHG = h, x

	horizontal := e.cfg.Disposition == aea.DispositionHorizontal
	guardIDs := e.cfg.GuardIDs()
	support := func(to string) {
		if horizontal {
			e.g.Connect(NodeYL, to, ConnColumn)
			e.g.Connect(NodeYR, to, ConnColumn)
			return
		}
		e.g.Connect(e.highestAxis(), to, ConnColumn)
	}

	if centred {
		e.g.Add(Node{Name: "HG1", Z: h, Kind: KindGuard, CableID: guardIDs[0]})
		support("HG1")
		return
	}
	e.g.Add(Node{Name: NodeTop, Z: h, Kind: KindGeneral})
	if horizontal {
		support(NodeTop)
	} else {
		e.g.ChainAxis(math.Inf(1))
	}
	e.g.Add(Node{Name: "HG1", X: -x, Z: h, Kind: KindGuard, CableID: guardIDs[0]})
	e.g.Connect(NodeTop, "HG1", ConnArm)
	if count == 2 {
		e.g.Add(Node{Name: "HG2", X: x, Z: h, Kind: KindGuard, CableID: guardIDs[1]})
		e.g.Connect(NodeTop, "HG2", ConnArm)
	}
}

func (e *engine) highestAxis() string {
	best, z := NodeBase, math.Inf(-1)
	for _, n := range e.g.nodes {
		if onAxis(n) && n.Z > z {
			best, z = n.Name, n.Z
		}
	}
	return best
}

// windNode adds the structure wind reference at 2/3 of the total height. On
// the Y topology it stays on the main column, at 2/3 of Y when 2/3 of the
// total height would reach the legs.
func (e *engine) windNode() {
	var top float64
	for _, n := range e.g.nodes {
		top = math.Max(top, n.Z)
	}
	e.dims.Height = top
	z := 2 * top / 3
	limit := math.Inf(1)
	if e.cfg.Disposition == aea.DispositionHorizontal {
		limit = e.dims.HY
		if z >= limit-1e-9 {
			z = 2 * limit / 3
		}
	}
	e.g.Add(Node{Name: NodeWind, Z: z, Kind: KindWind})
	e.g.ChainAxis(limit)
}
