package loads

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/cable"
	"github.com/agerpk/estructural/internal/config"
	"github.com/agerpk/estructural/internal/geometry"
	"github.com/agerpk/estructural/internal/mechanics"
)

// Load names attached to nodes
const (
	LoadWeight          = "peso"
	LoadIce             = "hielo"
	LoadWind            = "viento"
	LoadPull            = "tiro"
	LoadChainWeight     = "peso_cadena"
	LoadChainWind       = "viento_cadena"
	LoadStructureWind   = "viento_estructura"
	LoadStructureWeight = "peso_estructura"
)

// ErrNotConverged is returned when a cable has no usable tension for a hypothesis state
var ErrNotConverged = errors.New("cable mechanics did not converge")

// Input bundles the upstream results the load engine consumes
type Input struct {
	Config     *config.StructureConfig
	Cables     cable.Catalogue
	Geometry   *geometry.Result
	Mechanics  *mechanics.LineResult
	Hypotheses aea.Catalogue
}

// Result is the DME output: node loads and one reaction row per hypothesis
type Result struct {
	Hypotheses []string     `json:"hipotesis"`
	Nodes      []*NodeLoads `json:"cargas_nodos"`
	Reactions  []Reaction   `json:"reacciones"`
}

// Node returns the loads of a node
func (r *Result) Node(name string) (*NodeLoads, bool) {
	for _, n := range r.Nodes {
		if n.Node == name {
			return n, true
		}
	}
	return nil, false
}

// Reaction returns the reaction row of a hypothesis
func (r *Result) Reaction(code string) (Reaction, bool) {
	for _, re := range r.Reactions {
		if re.Code == code {
			return re, true
		}
	}
	return Reaction{}, false
}

// cableLoad holds what one cable attachment needs to build its loads
type cableLoad struct {
	node    geometry.Node
	cable   cable.Cable
	result  mechanics.Result
	wind    *cable.WindTable
	chained bool
}

type engine struct {
	cfg    *config.StructureConfig
	geo    *geometry.Result
	cables []cableLoad
	nodes  map[string]*NodeLoads
	order  []string
}

// Compute applies every hypothesis of the catalogue to the structure and
// aggregates the base reactions
func Compute(in Input, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := in.Hypotheses.Validate(in.Config.States.IDs()); err != nil {
		return nil, err
	}
	e, err := newEngine(in)
	if err != nil {
		return nil, err
	}

	res := &Result{Hypotheses: in.Hypotheses.Codes()}
	for _, h := range in.Hypotheses {
		if err := e.apply(h); err != nil {
			return nil, fmt.Errorf("hipotesis %s: %w", h.Code, err)
		}
	}
	for _, name := range e.order {
		res.Nodes = append(res.Nodes, e.nodes[name])
	}
	for _, h := range in.Hypotheses {
		re := e.reaction(h.Code)
		res.Reactions = append(res.Reactions, re)
		logger.Debug("reaction",
			zap.String("hipotesis", h.Code),
			zap.Float64("tx", re.Tx),
			zap.Float64("ty", re.Ty),
			zap.Float64("fz", re.Fz),
			zap.Float64("mz", re.Mz))
	}
	return res, nil
}

func newEngine(in Input) (*engine, error) {
	e := &engine{
		cfg:   in.Config,
		geo:   in.Geometry,
		nodes: make(map[string]*NodeLoads),
	}
	for _, n := range in.Geometry.Nodes {
		e.nodes[n.Name] = &NodeLoads{Node: n.Name, Rotation: n.Rotation}
		e.order = append(e.order, n.Name)
	}

	guardIndex := 0
	for _, n := range in.Geometry.Nodes {
		if !n.IsCable() {
			continue
		}
		c, err := in.Cables.Get(n.CableID)
		if err != nil {
			return nil, fmt.Errorf("nodo %s: %w", n.Name, err)
		}
		cl := cableLoad{node: n, cable: c}
		height := in.Config.Wind.ConductorHeight
		if n.Kind == geometry.KindConductor {
			cl.result = in.Mechanics.Conductor
			cl.chained = true
		} else {
			if guardIndex >= len(in.Mechanics.Guards) {
				return nil, fmt.Errorf("nodo %s: no mechanical result for ground wire %d", n.Name, guardIndex+1)
			}
			cl.result = in.Mechanics.Guards[guardIndex]
			guardIndex++
			height = in.Config.Wind.GuardHeight
		}
		if cl.wind, err = mechanics.NewWindTable(in.Config, c, height); err != nil {
			return nil, err
		}
		e.cables = append(e.cables, cl)
	}
	return e, nil
}

// pullReduction is the fraction removed from the broken-conductor pull
func (e *engine) pullReduction(h aea.Hypothesis) float64 {
	if !h.IsBreakFamily() || !e.cfg.Loads.ReduceBreak {
		return 0
	}
	if e.cfg.Mechanical.ChainLength > 2.5 {
		return 0.15
	}
	return 0.20
}

// backSide returns the fraction of the tension still present on the back span
// of a cable: 1 for a balanced attachment, 0 for a broken or terminal one
func (e *engine) backSide(h aea.Hypothesis, c cableLoad, firstCond, firstGuard string) float64 {
	var pull float64
	if c.node.Name == firstCond {
		pull = math.Max(pull, h.Factor(aea.MagBrokenConductor)*(1-e.pullReduction(h)))
	}
	if c.node.Name == firstGuard {
		pull = math.Max(pull, h.Factor(aea.MagBrokenGuard))
	}
	pull = math.Max(pull, h.Factor(aea.MagUnbalanced))

	unilateral := h.Factor(aea.MagUnilateral)
	if e.cfg.Type == aea.StructureTerminal && h.Code != "A0" && unilateral == 0 {
		unilateral = 1
	}
	pull = math.Max(pull, unilateral)
	return math.Max(0, 1-pull)
}

func (e *engine) apply(h aea.Hypothesis) error {
	state, ok := e.cfg.States.Get(h.State)
	if !ok {
		return fmt.Errorf("unknown climatic state %q", h.State)
	}
	span := e.cfg.Span
	m := e.cfg.Mechanical
	az := h.WindAzimuth * math.Pi / 180
	wx, wy := math.Sin(az), math.Cos(az)
	half := e.cfg.DeviationAngle * math.Pi / 360

	var firstCond, firstGuard string
	if c := e.geo.NodesOfKind(geometry.KindConductor); len(c) > 0 {
		firstCond = c[0].Name
	}
	if g := e.geo.NodesOfKind(geometry.KindGuard); len(g) > 0 {
		firstGuard = g[0].Name
	}

	ice := 0.0
	if f := h.Factor(aea.MagIce); f > 0 {
		ice = state.IceThickness
	}

	for _, c := range e.cables {
		nl := e.nodes[c.node.Name]
		st, ok := c.result.State(h.State)
		if !ok || math.IsNaN(st.Tension) {
			return fmt.Errorf("%s (%s): %w", c.node.Name, c.cable.ID, ErrNotConverged)
		}

		if f := h.Factor(aea.MagWeight); f > 0 {
			nl.Add(LoadWeight, h.Code, Force(0, 0, -f*c.cable.UnitWeight*span))
			if c.chained && m.ChainWeight > 0 {
				nl.Add(LoadChainWeight, h.Code, Force(0, 0, -f*m.ChainWeight))
			}
		}
		if f := h.Factor(aea.MagIce); f > 0 && ice > 0 {
			nl.Add(LoadIce, h.Code, Force(0, 0, -f*c.cable.IceWeight(ice)*span))
		}
		if f := h.Factor(aea.MagWindCables); f > 0 && state.WindVelocity > 0 {
			fu := c.wind.UnitLoad(state.WindVelocity, h.WindAzimuth, ice)
			nl.Add(LoadWind, h.Code, Force(f*fu*span, 0, 0))
			if c.chained && m.ChainLength > 0 {
				fc := e.rigidWind(state.WindVelocity, e.cfg.Wind.ConductorHeight, e.cfg.Wind.CfChain, m.ChainDiameter) * m.ChainLength
				nl.Add(LoadChainWind, h.Code, Force(f*fc*wx, f*fc*wy, 0))
			}
		}

		// ahead span pulls toward +y, back span toward -y; both deviate toward +x
		ahead, back := 1.0, e.backSide(h, c, firstCond, firstGuard)
		t := st.Tension
		fy := t * math.Cos(half) * (ahead - back)
		var fx float64
		if f := h.Factor(aea.MagDeviation); f > 0 {
			fx = f * t * math.Sin(half) * (ahead + back)
		}
		if fx != 0 || fy != 0 {
			nl.Add(LoadPull, h.Code, Force(fx, fy, 0))
		}
	}

	if f := h.Factor(aea.MagWindStructure); f > 0 {
		if v, ok := e.nodes[geometry.NodeWind]; ok {
			if state.WindVelocity > 0 {
				vn, _ := e.geo.Node(geometry.NodeWind)
				height := e.geo.Dimensions.Height
				fs := e.rigidWind(state.WindVelocity, vn.Z, e.cfg.Wind.CfStructure, m.ColumnDiameter) * height
				v.Add(LoadStructureWind, h.Code, Force(f*fs*wx, f*fs*wy, 0))
			}
		}
	}
	if f := h.Factor(aea.MagWeight); f > 0 && m.StructureWeight > 0 {
		e.nodes[geometry.NodeBase].Add(LoadStructureWeight, h.Code, Force(0, 0, -f*m.StructureWeight))
	}
	return nil
}

// rigidWind returns the unit wind load (daN/m) on a rigid element normal to the wind
func (e *engine) rigidWind(v, z, cf, width float64) float64 {
	exp, _ := e.cfg.Exposure.Params()
	fc, _ := e.cfg.Class.LoadFactor()
	return aea.NewtonToDaN(aea.WindForce(aea.WindInput{
		Exposure: exp,
		Fc:       fc,
		Height:   z,
		Velocity: v,
		Cf:       cf,
		Diameter: width,
		Rigid:    true,
	}))
}
