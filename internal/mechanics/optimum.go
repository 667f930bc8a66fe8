package mechanics

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/agerpk/estructural/internal/config"
)

// Limiter tags for the physical bounds of the search
const (
	LimitPhysicalMax = "Límite máximo físico"
	LimitPhysicalMin = "Límite mínimo físico"
)

// Search bounds, as fractions of the ultimate stress
const (
	maxSearchIterations = 10000
	physicalCap         = 0.95
	startMinSag         = 0.01
	startMinTension     = 0.70
)

var phaseSteps = [3]float64{0.01, 0.001, 0.0001}

// Result is the optimum sag-tension solution of one cable
type Result struct {
	CableID        string           `json:"cable"`
	Objective      config.Objective `json:"objetivo"`
	States         []StateResult    `json:"estados"`
	BasicState     string           `json:"estado_basico"`
	Limiter        string           `json:"limitante"`
	OptimalStress  float64          `json:"tension_optima_dan_mm2"`
	OptimalTension float64          `json:"tiro_optimo_dan"`
	Converged      bool             `json:"convergio"`
	Iterations     int              `json:"iteraciones"`
}

// State returns the result of a climatic state
func (r Result) State(id string) (StateResult, bool) {
	for _, s := range r.States {
		if s.State == id {
			return s, true
		}
	}
	return StateResult{}, false
}

// MaxSag returns fmax, the largest vertical sag over all states (NaN when unsolved)
func (r Result) MaxSag() float64 {
	if !r.Converged || len(r.States) == 0 {
		return math.NaN()
	}
	var f float64
	for _, s := range r.States {
		f = math.Max(f, s.Sag)
	}
	return f
}

// MaxResultantSag returns the largest wind-inclined sag over all states
func (r Result) MaxResultantSag() float64 {
	if !r.Converged || len(r.States) == 0 {
		return math.NaN()
	}
	var f float64
	for _, s := range r.States {
		f = math.Max(f, s.ResultantSag)
	}
	return f
}

// check returns "" when every active constraint holds, else the limiter tag
func (p *Problem) check(states []StateResult) string {
	const tol = 1e-9
	switch p.Objective {
	case config.ObjectiveMinTension:
		for i, s := range states {
			if p.MaxSag > 0 && s.Sag > p.MaxSag*(1+tol) {
				return "flecha:" + s.State
			}
			limit := p.States[i].SagRatioLimit
			if limit <= 0 || p.Reference == nil {
				continue
			}
			ref, ok := p.Reference.State(s.State)
			if !ok || !(ref.Sag > 0) {
				continue
			}
			if s.Sag/ref.Sag > limit*(1+tol) {
				return "relflecha:" + s.State
			}
		}
	default:
		ult := p.Cable.UltimateLoad
		for i, s := range states {
			frac := p.States[i].MaxTensionFraction
			if frac > 0 && s.Tension > frac*ult*(1+tol) {
				return "tension:" + s.State
			}
		}
	}
	return ""
}

// Optimize runs the three-phase bracket search for the optimum tension.
// MinSag walks upward from 1 % of the ultimate stress, MinTension downward
// from 70 %. An infeasible start yields a NaN result tagged with the limiter.
func (p *Problem) Optimize() Result {
	sigma := p.Cable.UltimateStress()
	dir := 1.0
	start := startMinSag
	if p.Objective == config.ObjectiveMinTension {
		dir = -1
		start = startMinTension
	}

	res := Result{CableID: p.Cable.ID, Objective: p.Objective}

	eval := func(frac float64) ([]StateResult, int, string) {
		res.Iterations++
		states, basic := p.Solve(frac * sigma)
		return states, basic, p.check(states)
	}

	states, basic, violation := eval(start)
	if violation != "" {
		return p.failed(res, violation)
	}
	best := start
	bestStates, bestBasic := states, basic
	limiter := ""

	// bound of the current phase: first infeasible fraction found by the previous one
	bound := math.NaN()
	for _, step := range phaseSteps {
		from := best
		limiter = ""
		for n := 1; res.Iterations < maxSearchIterations; n++ {
			frac := from + dir*float64(n)*step
			if !math.IsNaN(bound) && dir*(frac-bound) >= -step/2 {
				limiter = res.Limiter
				break
			}
			if frac > physicalCap+1e-12 {
				limiter = LimitPhysicalMax
				break
			}
			if frac <= 1e-12 {
				limiter = LimitPhysicalMin
				break
			}
			states, basic, violation = eval(frac)
			if violation != "" {
				limiter = violation
				bound = frac
				break
			}
			best = frac
			bestStates, bestBasic = states, basic
		}
		if limiter != "" {
			res.Limiter = limiter
		}
		if limiter == LimitPhysicalMax || limiter == LimitPhysicalMin {
			// no constraint ahead; finer steps cannot move past the bound
			break
		}
	}
	if res.Limiter == "" {
		res.Limiter = fmt.Sprintf("iteraciones:%d", res.Iterations)
	}

	res.States = bestStates
	res.BasicState = p.States[bestBasic].ID
	res.OptimalStress = bestStates[0].Stress
	res.OptimalTension = bestStates[0].Tension
	res.Converged = true
	return res
}

func (p *Problem) failed(res Result, limiter string) Result {
	res.Limiter = limiter
	res.OptimalStress = math.NaN()
	res.OptimalTension = math.NaN()
	res.States = make([]StateResult, len(p.States))
	for i, s := range p.States {
		res.States[i] = nanState(s.ID)
	}
	if len(p.States) > 0 {
		res.BasicState = p.States[0].ID
	}
	return res
}

func nanState(id string) StateResult {
	n := math.NaN()
	return StateResult{
		State: id, Stress: n, Tension: n, Sag: n, ResultantSag: n,
		VerticalLoad: n, WindLoad: n, UnitLoad: n, PercentUltimate: n, SwingAngle: n,
	}
}

// jsonFloat encodes NaN and ±Inf as null
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = jsonFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

type stateWire struct {
	State           string    `json:"estado"`
	Stress          jsonFloat `json:"tension_dan_mm2"`
	Tension         jsonFloat `json:"tiro_dan"`
	Sag             jsonFloat `json:"flecha_vertical_m"`
	ResultantSag    jsonFloat `json:"flecha_resultante_m"`
	VerticalLoad    jsonFloat `json:"carga_vertical_dan_m"`
	WindLoad        jsonFloat `json:"carga_viento_dan_m"`
	UnitLoad        jsonFloat `json:"carga_unitaria_dan_m"`
	PercentUltimate jsonFloat `json:"porcentaje_rotura"`
	SwingAngle      jsonFloat `json:"angulo_oscilacion_deg"`
}

func (s StateResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateWire{
		State: s.State, Stress: jsonFloat(s.Stress), Tension: jsonFloat(s.Tension),
		Sag: jsonFloat(s.Sag), ResultantSag: jsonFloat(s.ResultantSag),
		VerticalLoad: jsonFloat(s.VerticalLoad), WindLoad: jsonFloat(s.WindLoad),
		UnitLoad: jsonFloat(s.UnitLoad), PercentUltimate: jsonFloat(s.PercentUltimate),
		SwingAngle: jsonFloat(s.SwingAngle),
	})
}

func (s *StateResult) UnmarshalJSON(data []byte) error {
	var w stateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = StateResult{
		State: w.State, Stress: float64(w.Stress), Tension: float64(w.Tension),
		Sag: float64(w.Sag), ResultantSag: float64(w.ResultantSag),
		VerticalLoad: float64(w.VerticalLoad), WindLoad: float64(w.WindLoad),
		UnitLoad: float64(w.UnitLoad), PercentUltimate: float64(w.PercentUltimate),
		SwingAngle: float64(w.SwingAngle),
	}
	return nil
}

type resultWire struct {
	CableID        string           `json:"cable"`
	Objective      config.Objective `json:"objetivo"`
	States         []StateResult    `json:"estados"`
	BasicState     string           `json:"estado_basico"`
	Limiter        string           `json:"limitante"`
	OptimalStress  jsonFloat        `json:"tension_optima_dan_mm2"`
	OptimalTension jsonFloat        `json:"tiro_optimo_dan"`
	Converged      bool             `json:"convergio"`
	Iterations     int              `json:"iteraciones"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultWire{
		CableID: r.CableID, Objective: r.Objective, States: r.States,
		BasicState: r.BasicState, Limiter: r.Limiter,
		OptimalStress: jsonFloat(r.OptimalStress), OptimalTension: jsonFloat(r.OptimalTension),
		Converged: r.Converged, Iterations: r.Iterations,
	})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var w resultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Result{
		CableID: w.CableID, Objective: w.Objective, States: w.States,
		BasicState: w.BasicState, Limiter: w.Limiter,
		OptimalStress: float64(w.OptimalStress), OptimalTension: float64(w.OptimalTension),
		Converged: w.Converged, Iterations: w.Iterations,
	}
	return nil
}
