package geometry

import (
	"fmt"
	"math"
	"strconv"
)

// Result is the frozen DGE output
type Result struct {
	Params      Params               `json:"parametros"`
	Dimensions  Dimensions           `json:"dimensiones"`
	Nodes       []Node               `json:"nodos"`
	Connections []Connection         `json:"conexiones"`
	Minima      map[string]float64   `json:"minimos_teoricos"`
	Clearances  map[ZoneKind]float64 `json:"margenes"`
	Shielded    bool                 `json:"apantallado"`
	Warnings    []string             `json:"advertencias"`
}

// Node returns a node by name
func (r *Result) Node(name string) (Node, bool) {
	for _, n := range r.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// NodesOfKind returns the nodes of one kind in placement order
func (r *Result) NodesOfKind(kind NodeKind) []Node {
	var out []Node
	for _, n := range r.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// TopNode returns TOP when present, else the highest node
func (r *Result) TopNode() Node {
	if n, ok := r.Node(NodeTop); ok {
		return n
	}
	var top Node
	for i, n := range r.Nodes {
		if i == 0 || n.Z > top.Z {
			top = n
		}
	}
	return top
}

// Graph rebuilds the connection graph of the result
func (r *Result) Graph() *Graph {
	g := NewGraph()
	for _, n := range r.Nodes {
		g.Add(n)
	}
	for _, c := range r.Connections {
		g.Connect(c.From, c.To, c.Kind)
	}
	return g
}

func (e *engine) result() *Result {
	minima := make(map[string]float64, len(e.minima))
	for k, v := range e.minima {
		minima[k] = v
	}
	return &Result{
		Params:      e.p,
		Dimensions:  e.dims,
		Nodes:       e.g.Nodes(),
		Connections: e.g.Connections(),
		Minima:      minima,
		Clearances:  make(map[ZoneKind]float64),
		Warnings:    append([]string(nil), e.warnings...),
	}
}

// positions returns the cable positions of a node in a deflection regime.
// Suspension chains hang L_k below the attachment and swing toward the
// support; a centred chain is checked swinging both ways.
func (e *engine) positions(n Node, r Regime) [][2]float64 {
	if n.Kind == KindGuard || !e.swinging {
		return [][2]float64{{n.X, n.Z}}
	}
	lk := e.p.ChainLength
	theta := e.p.Swing(r) * math.Pi / 180
	dx, dz := lk*math.Sin(theta), lk*math.Cos(theta)
	switch {
	case n.X > 1e-9:
		return [][2]float64{{n.X - dx, n.Z - dz}}
	case n.X < -1e-9:
		return [][2]float64{{n.X + dx, n.Z - dz}}
	}
	if dx == 0 {
		return [][2]float64{{n.X, n.Z - dz}}
	}
	return [][2]float64{{n.X - dx, n.Z - dz}, {n.X + dx, n.Z - dz}}
}

// zones builds the forbidden zones seen by target in regime r. The target's
// own arms are excluded; cable circles apply at rest only.
func (e *engine) zones(g *Graph, target string, r Regime) []Zone {
	self, _ := g.Node(target)
	var out []Zone
	if self.Kind == KindConductor {
		s := e.p.Clearance(r)
		for _, c := range g.conns {
			if c.touches(target) {
				continue
			}
			a, okA := g.Node(c.From)
			b, okB := g.Node(c.To)
			if !okA || !okB {
				continue
			}
			out = append(out, e.memberZone(a, b, c, s))
		}
	}
	if r != RegimeRest {
		return out
	}
	for _, n := range g.nodes {
		if n.Name == target || !n.IsCable() {
			continue
		}
		if n.Kind == KindGuard && self.Kind == KindGuard {
			continue
		}
		pos := e.positions(n, RegimeRest)[0]
		circle := Circle{CX: pos[0], CZ: pos[1], Radius: e.p.PhaseDistance, Name: n.Name}
		if n.Kind == KindGuard || self.Kind == KindGuard {
			circle.Radius = e.p.GuardDistance
			circle.kind = ZoneGuardWire
		}
		if n.Kind == KindGuard {
			cut := n.Z
			circle.ZCutoff = &cut
		}
		out = append(out, circle)
	}
	return out
}

func (e *engine) memberZone(a, b Node, c Connection, s float64) Zone {
	if a.Z > b.Z || (a.Z == b.Z && a.X > b.X) {
		a, b = b, a
	}
	name := c.From + "-" + c.To
	dx, dz := b.X-a.X, b.Z-a.Z
	steep := c.Kind == ConnColumn && math.Abs(dz) >= math.Abs(dx)
	if steep {
		strip := VerticalStrip{
			X: a.X, ZMin: a.Z, ZMax: b.Z,
			HalfWidth: e.colHalf, Clearance: s, Name: name,
		}
		if math.Abs(dx) > 1e-9 {
			strip.Offset = &OffsetProfile{RefMin: a.Z, RefMax: b.Z, End: dx, Shape: ShapeTrapezoid}
		}
		m := e.cfg.Mechanical
		if a.Kind == KindBase && (m.ColumnBaseOffset != 0 || m.ColumnInterOffset != 0) {
			strip.Taper = &OffsetProfile{
				RefMin: a.Z, RefMax: b.Z,
				Begin: m.ColumnBaseOffset, End: m.ColumnInterOffset, Shape: ShapeTrapezoid,
			}
		}
		return strip
	}
	if a.X > b.X {
		a, b = b, a
	}
	strip := HorizontalStrip{
		XMin: a.X, XMax: b.X, Z: a.Z,
		HalfHeight: e.armHalf, Clearance: s, Name: name,
	}
	if math.Abs(b.Z-a.Z) > 1e-9 {
		strip.Offset = &OffsetProfile{RefMin: a.X, RefMax: b.X, End: b.Z - a.Z, Shape: ShapeTrapezoid}
	}
	return strip
}

// margin returns the smallest clearance margin of target over every regime
// and zone, grouped by zone kind
func (e *engine) margin(g *Graph, target string, report func(ZoneKind, Zone, Regime, float64)) float64 {
	n, ok := g.Node(target)
	if !ok {
		return math.Inf(1)
	}
	worst := math.Inf(1)
	for _, r := range Regimes {
		zones := e.zones(g, target, r)
		for _, pos := range e.positions(n, r) {
			for _, z := range zones {
				_, _, m := z.Distance(pos[0], pos[1])
				worst = math.Min(worst, m)
				if report != nil {
					report(z.Kind(), z, r, m)
				}
			}
		}
	}
	return worst
}

// clear reports whether every target keeps all its clearances
func (e *engine) clear(g *Graph, targets []string) bool {
	for _, t := range targets {
		if e.margin(g, t, nil) < 0 {
			return false
		}
	}
	return true
}

// shielded reports whether a conductor lies inside the cone of some guard
func (e *engine) shielded(c Node, guards []Node) bool {
	tan := math.Tan(e.cfg.Mechanical.ShieldAngle * math.Pi / 180)
	for _, g := range guards {
		depth := g.Z - c.Z
		if depth >= 0 && math.Abs(c.X-g.X) <= depth*tan+1e-6 {
			return true
		}
	}
	return false
}

// verify is stage 6: clearances, shielding, graph consistency and the
// distance of every level above its theoretical minimum
func (e *engine) verify(res *Result) {
	g := e.g
	for _, n := range g.nodes {
		if !n.IsCable() {
			continue
		}
		e.margin(g, n.Name, func(kind ZoneKind, z Zone, r Regime, m float64) {
			if math.IsInf(m, 0) {
				return
			}
			if cur, ok := res.Clearances[kind]; !ok || m < cur {
				res.Clearances[kind] = m
			}
			if m < -Tolerance {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"%s (%s): distancia a %s %s insuficiente en %.3f m",
					n.Name, r, kind, z.Source(), -m))
			}
		})
	}

	guards := res.NodesOfKind(KindGuard)
	res.Shielded = len(guards) > 0
	if len(guards) > 0 {
		for _, c := range res.NodesOfKind(KindConductor) {
			if !e.shielded(c, guards) {
				res.Shielded = false
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"%s fuera del cono de apantallamiento de %.0f°", c.Name, e.cfg.Mechanical.ShieldAngle))
			}
		}
	}

	res.Warnings = append(res.Warnings, g.Check(NodeBase)...)

	for _, n := range res.Nodes {
		key := ""
		switch {
		case n.Kind == KindConductor:
			key = strconv.Itoa(n.Level)
		case n.Kind == KindGuard:
			key = "HG"
		default:
			continue
		}
		min, ok := res.Minima[key]
		if ok && n.Z-min > 0.5+1e-9 {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"%s está %.2f m por encima de su altura mínima teórica (%.2f m)", n.Name, n.Z-min, min))
		}
	}
}
