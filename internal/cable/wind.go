package cable

import (
	"math"

	"github.com/agerpk/estructural/internal/aea"
)

// Wind regimes cached per cable
type Regime int

const (
	RegimeMax Regime = iota // V = Vmax
	RegimeMed               // V = Vmed
)

// CanonicalAngles are the wind incidence angles (degrees) precomputed per cable
var CanonicalAngles = [6]float64{0, 15, 30, 45, 60, 90}

// WindParams are the per-cable wind-computation inputs
type WindParams struct {
	Exposure aea.ExposureParams
	Fc       float64
	Height   float64 // effective height Z (m)
	Span     float64 // wind span (m)
	Cf       float64
	Vmax     float64
	Vmed     float64
}

// WindTable caches the bare-cable unit wind load (daN/m) for the canonical
// angles and both regimes, so later lookups are O(1)
type WindTable struct {
	cable  Cable
	params WindParams
	cache  [2][len(CanonicalAngles)]float64
}

// NewWindTable precomputes the unit wind loads of a cable
func NewWindTable(c Cable, p WindParams) *WindTable {
	wt := &WindTable{cable: c, params: p}
	for r, v := range []float64{p.Vmax, p.Vmed} {
		for i, a := range CanonicalAngles {
			wt.cache[r][i] = wt.compute(v, a, 0)
		}
	}
	return wt
}

func (wt *WindTable) compute(v, angle, ice float64) float64 {
	return aea.NewtonToDaN(aea.WindForce(aea.WindInput{
		Exposure: wt.params.Exposure,
		Fc:       wt.params.Fc,
		Height:   wt.params.Height,
		Velocity: v,
		Cf:       wt.params.Cf,
		Diameter: wt.cable.EquivalentDiameter(ice),
		AngleDeg: angle,
		Span:     wt.params.Span,
	}))
}

func canonicalIndex(angle float64) int {
	for i, a := range CanonicalAngles {
		if math.Abs(a-angle) < 1e-9 {
			return i
		}
	}
	return -1
}

// Cached returns the precomputed unit load for a regime and canonical angle
func (wt *WindTable) Cached(r Regime, angle float64) (float64, bool) {
	i := canonicalIndex(angle)
	if i < 0 {
		return 0, false
	}
	return wt.cache[r][i], true
}

// UnitLoad returns the wind load per metre (daN/m) at velocity v, incidence
// angle (degrees) and radial ice thickness (m)
func (wt *WindTable) UnitLoad(v, angle, ice float64) float64 {
	if v == 0 {
		return 0
	}
	if ice == 0 {
		if i := canonicalIndex(angle); i >= 0 {
			switch {
			case v == wt.params.Vmax:
				return wt.cache[RegimeMax][i]
			case v == wt.params.Vmed:
				return wt.cache[RegimeMed][i]
			case wt.params.Vmax > 0:
				// F_u scales with V²
				ratio := v / wt.params.Vmax
				return wt.cache[RegimeMax][i] * ratio * ratio
			}
		}
	}
	return wt.compute(v, angle, ice)
}

// Cable returns the cable the table was built for
func (wt *WindTable) Cable() Cable {
	return wt.cable
}
