package loads

import (
	"math"

	"github.com/agerpk/estructural/internal/geometry"
)

// Reaction is the base reaction of one hypothesis.
// Fz is reported as compression (downward positive).
type Reaction struct {
	Code            string  `json:"hipotesis"`
	Fx              float64 `json:"Fx"`
	Fy              float64 `json:"Fy"`
	Fz              float64 `json:"Fz"`
	Mx              float64 `json:"Mx"`
	My              float64 `json:"My"`
	Mz              float64 `json:"Mz"`
	Tx              float64 `json:"Tx"`
	Ty              float64 `json:"Ty"`
	Tres            float64 `json:"Tres"`
	Angle           float64 `json:"angulo"` // degrees from +x
	EffectiveHeight float64 `json:"altura_efectiva"`
	// Forces at the reaction node height producing the same base moment
	TopFx       float64 `json:"Fx_cima"`
	TopFy       float64 `json:"Fy_cima"`
	TopHeight   float64 `json:"altura_cima"`
	TopNodeName string  `json:"nodo_cima"`
}

// Finite reports whether every component is a finite number
func (r Reaction) Finite() bool {
	for _, v := range []float64{r.Fx, r.Fy, r.Fz, r.Mx, r.My, r.Mz, r.Tres, r.EffectiveHeight} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// reactionNode returns the configured reaction node, else the top of the support
func (e *engine) reactionNode() geometry.Node {
	if n, ok := e.geo.Node(e.cfg.Loads.ReactionNode); ok && n.Z > 0 {
		return n
	}
	return e.geo.TopNode()
}

func (e *engine) reaction(code string) Reaction {
	var f, m [3]float64
	for _, n := range e.geo.Nodes {
		v := e.nodes[n.Name].Global(code)
		f[0] += v[0]
		f[1] += v[1]
		f[2] += v[2]
		// r × F plus applied moments
		m[0] += n.Y*v[2] - n.Z*v[1] + v[3]
		m[1] += n.Z*v[0] - n.X*v[2] + v[4]
		m[2] += n.X*v[1] - n.Y*v[0] + v[5]
	}

	r := Reaction{
		Code: code,
		Fx:   f[0], Fy: f[1], Fz: -f[2],
		Mx: m[0], My: m[1], Mz: m[2],
		Tx: f[0], Ty: f[1],
	}
	r.Tres = math.Hypot(r.Tx, r.Ty)
	if r.Tres > 1e-9 {
		r.Angle = math.Atan2(r.Ty, r.Tx) * 180 / math.Pi
		r.EffectiveHeight = math.Hypot(r.Mx, r.My) / r.Tres
	}

	top := e.reactionNode()
	r.TopNodeName, r.TopHeight = top.Name, top.Z
	if top.Z > 0 {
		r.TopFx = r.My / top.Z
		r.TopFy = -r.Mx / top.Z
	}
	return r
}

// Governing returns the reaction with the largest value of metric
func Governing(reactions []Reaction, metric func(Reaction) float64) (Reaction, bool) {
	var best Reaction
	found := false
	for _, r := range reactions {
		if !found || metric(r) > metric(best) {
			best, found = r, true
		}
	}
	return best, found
}
