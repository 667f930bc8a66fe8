package mechanics

import (
	"math"

	"github.com/agerpk/estructural/internal/cable"
	"github.com/agerpk/estructural/internal/config"
)

// MaxBasicIterations bounds the basic-state promotion loop
const MaxBasicIterations = 10

// Problem describes one cable over one span across the climatic states
type Problem struct {
	Cable     cable.Cable
	Span      float64 // m
	LevelPre  float64 // attachment level of the previous support (m)
	LevelPost float64 // attachment level of the next support (m)
	States    config.ClimaticStates
	Wind      *cable.WindTable // nil disables wind
	Objective config.Objective
	MaxSag    float64 // m, 0 = none

	// Reference holds the conductor results a ground wire is compared against
	Reference *Result
}

// StateResult is the mechanical state of the cable in one climatic state
type StateResult struct {
	State           string  `json:"estado"`
	Stress          float64 `json:"tension_dan_mm2"`
	Tension         float64 `json:"tiro_dan"`
	Sag             float64 `json:"flecha_vertical_m"`
	ResultantSag    float64 `json:"flecha_resultante_m"`
	VerticalLoad    float64 `json:"carga_vertical_dan_m"`
	WindLoad        float64 `json:"carga_viento_dan_m"`
	UnitLoad        float64 `json:"carga_unitaria_dan_m"`
	PercentUltimate float64 `json:"porcentaje_rotura"`
	SwingAngle      float64 `json:"angulo_oscilacion_deg"`
}

type unitLoad struct {
	vertical, wind, resultant float64
}

func (p *Problem) loads(s config.ClimaticState) unitLoad {
	w := p.Cable.UnitWeight + p.Cable.IceWeight(s.IceThickness)
	var fw float64
	if p.Wind != nil {
		fw = p.Wind.UnitLoad(s.WindVelocity, 90, s.IceThickness)
	}
	return unitLoad{vertical: w, wind: fw, resultant: math.Hypot(w, fw)}
}

// chordFactor is 1/cos ψ for the level difference between supports
func (p *Problem) chordFactor() float64 {
	dh := p.LevelPost - p.LevelPre
	if dh == 0 {
		return 1
	}
	return 1 / math.Cos(math.Atan(dh/p.Span))
}

// statesFrom computes every state from a basic state carrying stress t0
func (p *Problem) statesFrom(basic int, t0 float64) []StateResult {
	c := p.Cable
	S := c.SectionMM2
	E := c.ElasticModulus
	L := p.Span
	base := p.States[basic]
	g0 := p.loads(base).resultant
	k := L * L * E / (24 * S * S)
	chord := p.chordFactor()

	out := make([]StateResult, len(p.States))
	for i, s := range p.States {
		ul := p.loads(s)
		var t float64
		if i == basic {
			t = t0
		} else {
			a := k*g0*g0/(t0*t0) + c.ThermalExpansion*E*(s.Temperature-base.Temperature) - t0
			b := -k * ul.resultant * ul.resultant
			t = SolveChangeOfState(a, b)
		}
		T := t * S
		out[i] = StateResult{
			State:           s.ID,
			Stress:          t,
			Tension:         T,
			Sag:             ul.vertical * L * L * chord / (8 * T),
			ResultantSag:    ul.resultant * L * L * chord / (8 * T),
			VerticalLoad:    ul.vertical,
			WindLoad:        ul.wind,
			UnitLoad:        ul.resultant,
			PercentUltimate: 100 * T / c.UltimateLoad,
			SwingAngle:      math.Atan2(ul.wind, ul.vertical) * 180 / math.Pi,
		}
	}
	return out
}

// Solve imposes stress t0 (daN/mm²) on the first state and iterates the basic
// state until the state of maximum tension is the basic state.
// It returns the states and the index of the basic state.
func (p *Problem) Solve(t0 float64) ([]StateResult, int) {
	basic := 0
	states := p.statesFrom(basic, t0)
	for iter := 0; iter < MaxBasicIterations; iter++ {
		k := maxTension(states)
		if k == basic {
			break
		}
		basic = k
		states = p.statesFrom(basic, states[k].Stress)
	}
	return states, basic
}

func maxTension(states []StateResult) int {
	k := 0
	for i, s := range states {
		if s.Stress > states[k].Stress {
			k = i
		}
	}
	return k
}
