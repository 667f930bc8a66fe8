package geometry

import (
	"fmt"
	"math"
	"sort"
)

// NodeKind classifies structure nodes
type NodeKind string

const (
	KindBase      NodeKind = "base"
	KindCross     NodeKind = "cruce"
	KindConductor NodeKind = "conductor"
	KindGuard     NodeKind = "guardia"
	KindGeneral   NodeKind = "general"
	KindWind      NodeKind = "viento"
)

// Node is a placed structure point. Geometry is frozen once the engine returns.
type Node struct {
	Name     string     `json:"nombre"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Z        float64    `json:"z"`
	Kind     NodeKind   `json:"tipo"`
	CableID  string     `json:"cable,omitempty"`
	Rotation [3]float64 `json:"rotacion"` // Rx, Ry, Rz (degrees)
	Level    int        `json:"nivel,omitempty"`
}

// IsCable reports whether the node carries a cable
func (n Node) IsCable() bool {
	return n.Kind == KindConductor || n.Kind == KindGuard
}

// ConnectionKind classifies rigid members
type ConnectionKind string

const (
	ConnColumn   ConnectionKind = "columna"
	ConnArm      ConnectionKind = "mensula"
	ConnCrossbar ConnectionKind = "cruceta"
)

// Connection is a rigid member between two nodes
type Connection struct {
	From string         `json:"desde"`
	To   string         `json:"hasta"`
	Kind ConnectionKind `json:"tipo"`
}

func (c Connection) touches(name string) bool {
	return c.From == name || c.To == name
}

// Graph is the growing node and member model of the support
type Graph struct {
	nodes []Node
	index map[string]int
	conns []Connection
}

// NewGraph returns an empty graph
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// Add inserts or replaces a node
func (g *Graph) Add(n Node) {
	if i, ok := g.index[n.Name]; ok {
		g.nodes[i] = n
		return
	}
	g.index[n.Name] = len(g.nodes)
	g.nodes = append(g.nodes, n)
}

// Node returns a node by name
func (g *Graph) Node(name string) (Node, bool) {
	i, ok := g.index[name]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Nodes returns the nodes in insertion order
func (g *Graph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

// Connections returns the members
func (g *Graph) Connections() []Connection {
	return append([]Connection(nil), g.conns...)
}

// Connect adds a member once; both orientations count as the same member
func (g *Graph) Connect(from, to string, kind ConnectionKind) {
	if from == to {
		return
	}
	for _, c := range g.conns {
		if (c.From == from && c.To == to) || (c.From == to && c.To == from) {
			return
		}
	}
	g.conns = append(g.conns, Connection{From: from, To: to, Kind: kind})
}

// Clone returns an independent copy
func (g *Graph) Clone() *Graph {
	out := &Graph{
		nodes: append([]Node(nil), g.nodes...),
		index: make(map[string]int, len(g.index)),
		conns: append([]Connection(nil), g.conns...),
	}
	for k, v := range g.index {
		out.index[k] = v
	}
	return out
}

func onAxis(n Node) bool {
	if math.Abs(n.X) > 1e-9 {
		return false
	}
	switch n.Kind {
	case KindBase, KindCross, KindGeneral, KindWind:
		return true
	}
	return false
}

// ChainAxis rebuilds the column members joining the on-axis nodes bottom-up,
// up to height top. Nodes inserted between existing column
// nodes split the member instead of duplicating it.
func (g *Graph) ChainAxis(top float64) {
	var axis []Node
	for _, n := range g.nodes {
		if onAxis(n) && n.Z <= top+1e-9 {
			axis = append(axis, n)
		}
	}
	sort.SliceStable(axis, func(i, j int) bool { return axis[i].Z < axis[j].Z })

	onChain := make(map[string]bool, len(axis))
	for _, n := range axis {
		onChain[n.Name] = true
	}
	kept := g.conns[:0]
	for _, c := range g.conns {
		if c.Kind == ConnColumn && onChain[c.From] && onChain[c.To] {
			continue
		}
		kept = append(kept, c)
	}
	g.conns = kept
	for i := 1; i < len(axis); i++ {
		g.Connect(axis[i-1].Name, axis[i].Name, ConnColumn)
	}
}

// Check reports dangling or duplicated members and nodes unreachable from base
func (g *Graph) Check(base string) []string {
	var problems []string
	seen := make(map[[2]string]bool, len(g.conns))
	adj := make(map[string][]string)
	for _, c := range g.conns {
		if _, ok := g.index[c.From]; !ok {
			problems = append(problems, fmt.Sprintf("conexión %s-%s: nodo %s inexistente", c.From, c.To, c.From))
		}
		if _, ok := g.index[c.To]; !ok {
			problems = append(problems, fmt.Sprintf("conexión %s-%s: nodo %s inexistente", c.From, c.To, c.To))
		}
		key := [2]string{c.From, c.To}
		if c.To < c.From {
			key = [2]string{c.To, c.From}
		}
		if seen[key] {
			problems = append(problems, fmt.Sprintf("conexión %s-%s duplicada", c.From, c.To))
		}
		seen[key] = true
		adj[c.From] = append(adj[c.From], c.To)
		adj[c.To] = append(adj[c.To], c.From)
	}

	reached := map[string]bool{base: true}
	queue := []string{base}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range adj[n] {
			if !reached[m] {
				reached[m] = true
				queue = append(queue, m)
			}
		}
	}
	for _, n := range g.nodes {
		if !reached[n.Name] {
			problems = append(problems, fmt.Sprintf("nodo %s no conectado a %s", n.Name, base))
		}
	}
	return problems
}
