package foundation

import (
	"fmt"
	"math"

	"github.com/agerpk/estructural/internal/config"
)

// daN to kgf
const kgfPerDaN = 1 / 0.981

// fsCap bounds reported safety factors when no horizontal force acts
const fsCap = 999.0

// Shape constants k1, k2 of the footing plan
type shapeConstants struct {
	K1, K2 float64
}

var shapes = map[string]shapeConstants{
	"rombica":  {K1: 4.5, K2: math.Sqrt2},
	"cuadrada": {K1: 6, K2: 2},
}

// Input is one foundation load case in kg and metres
type Input struct {
	Hypothesis string  `json:"hipotesis,omitempty"`
	Gp         float64 `json:"Gp"` // structure vertical load (kg)
	Tx         float64 `json:"Tx"` // transverse force (kgf)
	Ty         float64 `json:"Ty"` // longitudinal force (kgf)
	Fz         float64 `json:"Fz"` // extra vertical load, compression positive (kgf)
	H          float64 `json:"h"`  // pole length (m)
	Hl         float64 `json:"hl"` // force height above ground (m)
	He         float64 `json:"he"` // embedment (m)
	Dc         float64 `json:"dc"` // mean embedded pole diameter (m)
	Poles      int     `json:"n_postes"`
}

// Validate checks the load case is usable
func (in Input) Validate() error {
	switch {
	case in.He <= 0:
		return fmt.Errorf("he must be positive, got %.3f", in.He)
	case in.Hl <= 0:
		return fmt.Errorf("hl must be positive, got %.3f", in.Hl)
	case in.Dc < 0:
		return fmt.Errorf("dc must not be negative")
	case in.Poles < 1 || in.Poles > 3:
		return fmt.Errorf("n_postes must be 1, 2 or 3, got %d", in.Poles)
	}
	return nil
}

// Check holds the overturning verification in one direction
type Check struct {
	Case     int     `json:"caso"`
	TgAlpha1 float64 `json:"tg_alfa1"`
	TgAlpha2 float64 `json:"tg_alfa2"`
	Ms       float64 `json:"Ms"` // lateral soil moment (kg·m)
	Mb       float64 `json:"Mb"` // base reaction moment (kg·m)
	Mv       float64 `json:"Mv"` // overturning moment (kg·m)
	S        float64 `json:"s"`
	FS       float64 `json:"FS"`
	Tilt     float64 `json:"tg_alfa"`
	SigmaMax float64 `json:"sigma_max"` // kg/m²
}

// Result is the sized footing of one load case
type Result struct {
	Input          Input     `json:"entrada"`
	T              float64   `json:"t"`
	A              float64   `json:"a"`
	B              float64   `json:"b"`
	Volume         float64   `json:"volumen_hormigon"`
	ConcreteWeight float64   `json:"peso_hormigon"`
	EarthWeight    float64   `json:"peso_tierra"`
	VerticalLoad   float64   `json:"carga_vertical"`
	Transverse     Check     `json:"transversal"`
	Longitudinal   Check     `json:"longitudinal"`
	SigmaMax       float64   `json:"sigma_max"`
	Slenderness    float64   `json:"esbeltez"`
	Converged      bool      `json:"convergio"`
	Iterations     int       `json:"iteraciones"`
	Trace          []float64 `json:"traza_fs"`
}

// Solver sizes Sulzberger monobloc footings
type Solver struct {
	p     config.FoundationParams
	shape shapeConstants
}

// NewSolver validates the foundation parameters
func NewSolver(p config.FoundationParams) (*Solver, error) {
	k, ok := shapes[p.Shape]
	if !ok {
		return nil, fmt.Errorf("unknown footing shape %q", p.Shape)
	}
	if p.C <= 0 || p.SigmaAdm <= 0 || p.TgAlphaAdm <= 0 || p.FSRequired <= 0 {
		return nil, fmt.Errorf("C, sigma_adm, tg_alfa_adm and FS_req must be positive")
	}
	return &Solver{p: p, shape: k}, nil
}

// state evaluates every criterion for one (t, a, b)
func (s *Solver) state(in Input, t, a, b float64) Result {
	p := s.p
	r := Result{Input: in, T: t, A: a, B: b}

	r.Volume = a*b*t - math.Pi/4*in.Dc*in.Dc*in.He*float64(in.Poles)
	r.ConcreteWeight = r.Volume * p.GammaConcrete

	// earth frustum flaring at beta over the block
	tb := math.Tan(p.Beta * math.Pi / 180)
	a2, b2 := a+2*t*tb, b+2*t*tb
	lower, upper := a*b, a2*b2
	frustum := t / 3 * (lower + upper + math.Sqrt(lower*upper))
	r.EarthWeight = math.Max(0, frustum-a*b*t) * p.GammaSoil

	r.VerticalLoad = in.Gp + in.Fz + r.ConcreteWeight + r.EarthWeight
	r.Slenderness = t / in.He

	// transverse force bears on the b face; the footing rotates over a
	r.Transverse = s.check(r.VerticalLoad, in.Tx, in.Hl, t, b, a)
	r.Longitudinal = s.check(r.VerticalLoad, in.Ty, in.Hl, t, a, b)
	r.SigmaMax = math.Max(r.Transverse.SigmaMax, r.Longitudinal.SigmaMax)
	return r
}

// check verifies overturning for a force T at height hl. width is the face
// normal to the force, length the footing side along it.
func (s *Solver) check(G, T, hl, t, width, length float64) Check {
	p := s.p
	ct := p.C * t
	cb := p.CbCt * ct
	tga := p.TgAlphaAdm
	c := Check{
		TgAlpha1: s.shape.K1 * p.Mu * G / (width * t * t * ct),
		TgAlpha2: s.shape.K2 * G / (length * length * width * cb),
	}

	var lever float64
	if math.Min(c.TgAlpha1, c.TgAlpha2) > tga {
		c.Case = 1
		c.Ms = width * t * t * t * ct * tga / 36
		c.Mb = length * length * length * width * cb * tga / 12
		lever = hl + 2*t/3
	} else {
		c.Case = 2
		c.Ms = s.shape.K1 / 12 * p.Mu * G * t
		root := math.Sqrt(G / (s.shape.K2 * length * length * width * cb * tga))
		c.Mb = math.Max(0, G*length*(0.5-0.47*root))
		lever = hl + t
	}

	r := 1.0
	if c.Mb > 0 {
		r = math.Max(0, math.Min(1, c.Ms/c.Mb))
	}
	c.S = 1.48 - 0.842*r + 0.364*r*r
	c.Mv = c.S * math.Abs(T) * lever

	mo := c.Ms + c.Mb
	if c.Mv <= 0 || mo <= 0 {
		c.FS = fsCap
		if c.Mv > 0 {
			c.FS = 0
		}
		c.SigmaMax = G / (width * length)
		return c
	}
	c.FS = math.Min(mo/c.Mv, fsCap)
	c.Tilt = tga * c.Mv / mo

	// pressures follow the rotation the applied moment actually needs
	if c.Case == 1 {
		c.SigmaMax = G/(width*length) + cb*c.Tilt*length/2
	} else {
		c.SigmaMax = eccentricPressure(G, c.Mv*c.Mb/mo, width, length)
	}
	return c
}

// eccentricPressure returns the peak soil pressure of G carrying a base
// moment m: trapezoidal inside the kern, triangular outside
func eccentricPressure(G, m, width, length float64) float64 {
	if G <= 0 {
		return 0
	}
	e := m / G
	if e <= length/6 {
		return G / (width * length) * (1 + 6*e/length)
	}
	x := length/2 - e // compressed edge to resultant
	if x <= 0 {
		return math.MaxFloat64
	}
	return 2 * G / (3 * x * width)
}

func (s *Solver) fsOK(c Check) bool {
	return c.FS >= s.p.FSRequired && c.Tilt <= s.p.TgAlphaAdm+1e-12
}

func (s *Solver) bearingOK(r Result) bool {
	return r.SigmaMax <= s.p.SigmaAdm*1.33
}

// Size grows the footing from its start dimensions until every criterion holds
// or the iteration bound is reached. Non-convergence returns the last iterate.
func (s *Solver) Size(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	p := s.p
	t, a, b := math.Min(p.T0, p.SlendernessMax*in.He), p.A0, p.B0
	limit := p.MaxIterations

	var r Result
	var trace []float64
	for i := 0; ; i++ {
		r = s.state(in, t, a, b)
		trace = append(trace, math.Min(r.Transverse.FS, r.Longitudinal.FS))
		r.Iterations = i

		overturning := s.fsOK(r.Transverse) && s.fsOK(r.Longitudinal)
		bearing := s.bearingOK(r)
		slender := r.Slenderness <= p.SlendernessMax+1e-9
		if overturning && bearing && slender {
			r.Converged = true
			break
		}
		if i >= limit {
			break
		}
		if !overturning && t/in.He < 0.99*p.SlendernessMax && t < p.TMax {
			t += 0.01
		} else {
			a += 0.01
			b += 0.01
		}
	}
	r.Trace = trace
	return r, nil
}
