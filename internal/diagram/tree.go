package diagram

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/geometry"
	"github.com/agerpk/estructural/internal/loads"
)

// TreeNode is a structure node with the global load of one hypothesis
type TreeNode struct {
	Name string            `json:"nombre"`
	Kind geometry.NodeKind `json:"tipo"`
	X    float64           `json:"x"`
	Y    float64           `json:"y"`
	Z    float64           `json:"z"`
	Load loads.Vector      `json:"carga"`
}

// Tree is the load tree of one hypothesis
type Tree struct {
	Hypothesis  string                `json:"hipotesis"`
	Description string                `json:"descripcion"`
	Nodes       []TreeNode            `json:"nodos"`
	Members     []geometry.Connection `json:"conexiones"`
	MaxForce    float64               `json:"fuerza_maxima"` // largest nodal force (daN)
	File        string                `json:"archivo,omitempty"`
}

// BuildTrees assembles one load tree per hypothesis of the DME result
func BuildTrees(g *geometry.Result, l *loads.Result, hyps aea.Catalogue) ([]Tree, error) {
	if g == nil || l == nil {
		return nil, fmt.Errorf("load trees need geometry and loads")
	}
	trees := make([]Tree, 0, len(l.Hypotheses))
	for _, code := range l.Hypotheses {
		t := Tree{Hypothesis: code, Members: g.Connections}
		if h, ok := hyps.Get(code); ok {
			t.Description = h.Description
		}
		for _, n := range g.Nodes {
			tn := TreeNode{Name: n.Name, Kind: n.Kind, X: n.X, Y: n.Y, Z: n.Z}
			if nl, ok := l.Node(n.Name); ok {
				tn.Load = nl.Global(code)
			}
			if !tn.Load.Finite() {
				return nil, fmt.Errorf("hipotesis %s: non-finite load at %s", code, n.Name)
			}
			t.MaxForce = math.Max(t.MaxForce, math.Sqrt(tn.Load[0]*tn.Load[0]+tn.Load[1]*tn.Load[1]+tn.Load[2]*tn.Load[2]))
			t.Nodes = append(t.Nodes, tn)
		}
		trees = append(trees, t)
	}
	return trees, nil
}

// TreeFile returns the image path of a hypothesis tree
func TreeFile(dir, structure, code string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.arbol_%s.png", structure, code))
}

// ExportTrees renders every tree into dir and records the file names
func ExportTrees(trees []Tree, dir, structure string) error {
	for i := range trees {
		path := TreeFile(dir, structure, trees[i].Hypothesis)
		if err := ExportTree(trees[i], path); err != nil {
			return fmt.Errorf("arbol %s: %w", trees[i].Hypothesis, err)
		}
		trees[i].File = filepath.Base(path)
	}
	return nil
}
