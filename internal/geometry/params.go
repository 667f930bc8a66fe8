package geometry

import (
	"fmt"
	"math"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/cable"
	"github.com/agerpk/estructural/internal/config"
	"github.com/agerpk/estructural/internal/mechanics"
)

// Regime is an insulator-chain deflection regime
type Regime int

const (
	RegimeRest  Regime = iota // θ = 0
	RegimeStorm               // θ = θmax/2
	RegimeMax                 // θ = θmax
)

// Regimes lists the three deflection regimes in check order
var Regimes = []Regime{RegimeRest, RegimeStorm, RegimeMax}

func (r Regime) String() string {
	switch r {
	case RegimeStorm:
		return "tormenta"
	case RegimeMax:
		return "decmax"
	}
	return "reposo"
}

// Params holds the precomputed electrical distances of the support
type Params struct {
	SwingWind     float64 `json:"viento_oscilacion_dan"`
	SwingWeight   float64 `json:"peso_oscilacion_dan"`
	ThetaMax      float64 `json:"theta_max"`      // degrees
	ThetaStorm    float64 `json:"theta_tormenta"` // degrees
	K             float64 `json:"k"`
	Ka            float64 `json:"Ka"`
	Vmax          float64 `json:"Vmax_kv"`
	Fmax          float64 `json:"fmax"`
	ChainLength   float64 `json:"Lk"`
	PhaseDistance float64 `json:"D_fases"`
	GuardDistance float64 `json:"D_hg"`
	S             float64 `json:"s"`
	SRest         float64 `json:"s_reposo"`
	SStorm        float64 `json:"s_tormenta"`
	SMax          float64 `json:"s_decmax"`
	TerrainMin    float64 `json:"a"`
	Allowance     float64 `json:"b"`
	BaseHeight    float64 `json:"h_base_electrica"`
}

// Clearance returns the phase-to-structure distance of a regime
func (p Params) Clearance(r Regime) float64 {
	switch r {
	case RegimeStorm:
		return p.SStorm
	case RegimeMax:
		return p.SMax
	}
	return p.SRest
}

// Swing returns the chain swing angle of a regime in degrees
func (p Params) Swing(r Regime) float64 {
	switch r {
	case RegimeStorm:
		return p.ThetaStorm
	case RegimeMax:
		return p.ThetaMax
	}
	return 0
}

// SwingLoads returns the transverse wind and the vertical weight (daN) acting
// on a suspension chain at Vmax
func SwingLoads(cfg *config.StructureConfig, cond cable.Cable) (wind, weight float64, err error) {
	wt, err := mechanics.NewWindTable(cfg, cond, cfg.Wind.ConductorHeight)
	if err != nil {
		return 0, 0, err
	}
	exp, _ := cfg.Exposure.Params()
	fc, _ := cfg.Class.LoadFactor()
	m := cfg.Mechanical

	chainWind := aea.NewtonToDaN(aea.WindForce(aea.WindInput{
		Exposure: exp,
		Fc:       fc,
		Height:   cfg.Wind.ConductorHeight,
		Velocity: cfg.Wind.Vmax,
		Cf:       cfg.Wind.CfChain,
		Diameter: m.ChainDiameter,
		Rigid:    true,
	})) * m.ChainLength

	wind = wt.UnitLoad(cfg.Wind.Vmax, 90, 0)*cfg.Span + chainWind
	weight = cond.UnitWeight*cfg.Span + m.ChainWeight
	return wind, weight, nil
}

// ComputeParams derives the clearance distances from the configuration and fmax
func ComputeParams(cfg *config.StructureConfig, cond cable.Cable, fmax float64) (Params, error) {
	if math.IsNaN(fmax) || fmax < 0 {
		return Params{}, fmt.Errorf("conductor fmax unavailable (%v): cable mechanics did not converge", fmax)
	}
	m := cfg.Mechanical
	p := Params{Fmax: fmax, ChainLength: m.ChainLength}

	wind, weight, err := SwingLoads(cfg, cond)
	if err != nil {
		return Params{}, err
	}
	p.SwingWind, p.SwingWeight = wind, weight
	if cfg.Type.HasSwingingChain() && m.ChainLength > 0 {
		p.ThetaMax = math.Atan2(wind, weight) * 180 / math.Pi
		p.ThetaStorm = p.ThetaMax / 2
	}

	p.K, err = aea.KCoefficient(cfg.Disposition, p.ThetaMax)
	if err != nil {
		return Params{}, err
	}
	vn := cfg.NominalVoltage
	p.Ka = aea.AltitudeFactor(cfg.Altitude.Method, cfg.Altitude.Height)
	p.Vmax = aea.HighestSystemVoltage(vn)
	p.PhaseDistance = aea.PhaseSpacing(p.K, fmax, m.ChainLength, p.Ka, vn)
	p.GuardDistance = aea.GuardSpacing(p.K, fmax, m.ChainLength, p.Ka, vn)
	p.S = aea.StructureClearance(vn, p.Ka)
	p.SRest, p.SStorm, p.SMax = p.S, p.S, p.S
	if v := cfg.Clearance.Rest; v > 0 {
		p.SRest = v
	}
	if v := cfg.Clearance.Storm; v > 0 {
		p.SStorm = v
	}
	if v := cfg.Clearance.MaxDefl; v > 0 {
		p.SMax = v
	}

	p.TerrainMin, err = cfg.Terrain.MinimumClearance()
	if err != nil {
		return Params{}, err
	}
	p.Allowance = aea.VoltageAllowance(vn, p.Ka)
	p.BaseHeight = math.Max(p.TerrainMin+p.Allowance, m.MinCableHeight)
	return p, nil
}
