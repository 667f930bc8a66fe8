package loads

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vector is a six-component load: Fx, Fy, Fz (daN) and Mx, My, Mz (daN·m).
// x is transverse (wind side positive), y longitudinal, z up.
type Vector [6]float64

// Add returns the component-wise sum
func (v Vector) Add(o Vector) Vector {
	for i := range v {
		v[i] += o[i]
	}
	return v
}

// Scale returns v·f
func (v Vector) Scale(f float64) Vector {
	for i := range v {
		v[i] *= f
	}
	return v
}

// Finite reports whether every component is a finite number
func (v Vector) Finite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Force builds a pure force vector
func Force(fx, fy, fz float64) Vector {
	return Vector{fx, fy, fz}
}

// Load is one named contribution at a node, valued per hypothesis code
type Load struct {
	Name   string            `json:"nombre"`
	Values map[string]Vector `json:"valores"`
}

// NodeLoads collects the loads attached to one node. Values are stored in the
// node's local frame; Global rotates them by the node rotation.
type NodeLoads struct {
	Node     string     `json:"nodo"`
	Rotation [3]float64 `json:"rotacion"` // Rx, Ry, Rz (degrees)
	Loads    []Load     `json:"cargas"`
}

// Add merges v into the load called name under a hypothesis
func (n *NodeLoads) Add(name, code string, v Vector) {
	for i := range n.Loads {
		if n.Loads[i].Name == name {
			n.Loads[i].Values[code] = n.Loads[i].Values[code].Add(v)
			return
		}
	}
	n.Loads = append(n.Loads, Load{Name: name, Values: map[string]Vector{code: v}})
}

// Local returns the summed load of a hypothesis in the node frame
func (n *NodeLoads) Local(code string) Vector {
	var total Vector
	for _, l := range n.Loads {
		total = total.Add(l.Values[code])
	}
	return total
}

// Global returns the summed load of a hypothesis in the structure frame
func (n *NodeLoads) Global(code string) Vector {
	return Rotate(n.Rotation, n.Local(code))
}

// rotation returns R = Rz·Ry·Rx for angles in degrees
func rotation(rot [3]float64) *mat.Dense {
	rx, ry, rz := rot[0]*math.Pi/180, rot[1]*math.Pi/180, rot[2]*math.Pi/180
	cx, sx := math.Cos(rx), math.Sin(rx)
	cy, sy := math.Cos(ry), math.Sin(ry)
	cz, sz := math.Cos(rz), math.Sin(rz)

	mx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cx, -sx,
		0, sx, cx,
	})
	my := mat.NewDense(3, 3, []float64{
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	})
	mz := mat.NewDense(3, 3, []float64{
		cz, -sz, 0,
		sz, cz, 0,
		0, 0, 1,
	})

	var zy, r mat.Dense
	zy.Mul(mz, my)
	r.Mul(&zy, mx)
	return &r
}

// Rotate applies the node rotation to the force and moment parts of v
func Rotate(rot [3]float64, v Vector) Vector {
	if rot == [3]float64{} {
		return v
	}
	r := rotation(rot)
	var f, m mat.VecDense
	f.MulVec(r, mat.NewVecDense(3, []float64{v[0], v[1], v[2]}))
	m.MulVec(r, mat.NewVecDense(3, []float64{v[3], v[4], v[5]}))
	return Vector{f.AtVec(0), f.AtVec(1), f.AtVec(2), m.AtVec(0), m.AtVec(1), m.AtVec(2)}
}
