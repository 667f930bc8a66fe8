package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/shopspring/decimal"

	"github.com/agerpk/estructural/internal/aea"
)

// Circuits is the number of three-phase circuits on the support
type Circuits string

const (
	CircuitSimple Circuits = "Simple"
	CircuitDouble Circuits = "Doble"
)

// Objective selects what the cable optimum-tension search pursues
type Objective string

const (
	ObjectiveMinSag     Objective = "FlechaMin"
	ObjectiveMinTension Objective = "TiroMin"
)

// Ice phase-shift arm selections (MENSULA_DEFASAR)
const (
	ShiftFirst         = "primera"
	ShiftSecond        = "segunda"
	ShiftThird         = "tercera"
	ShiftFirstAndThird = "primera y tercera"
)

// WindParams groups the wind-computation inputs
type WindParams struct {
	Vmax            float64 `json:"Vmax"`                      // m/s
	Vmed            float64 `json:"Vmed"`                      // m/s
	ConductorHeight float64 `json:"altura_efectiva_conductor"` // Z for conductor wind (m)
	GuardHeight     float64 `json:"altura_efectiva_guardia"`   // Z for ground-wire wind (m)
	CfCable         float64 `json:"Cf_cable"`
	CfStructure     float64 `json:"Cf_estructura"`
	CfChain         float64 `json:"Cf_cadena"`
}

// ClearanceParams overrides the phase-to-structure distance per deflection regime.
// Zero keeps the computed s.
type ClearanceParams struct {
	Rest    float64 `json:"s_reposo"`
	Storm   float64 `json:"s_tormenta"`
	MaxDefl float64 `json:"s_decmax"`
}

// AltitudeParams holds the altitude correction block
type AltitudeParams struct {
	Height float64 `json:"altitud_msnm"`
	Method string  `json:"metodo"`
}

// IcePhaseShift lengthens selected cross-arms so ice-shedding conductors cannot touch
type IcePhaseShift struct {
	Enabled bool    `json:"DEFASAJE_MENSULA_HIELO"`
	Arms    string  `json:"MENSULA_DEFASAR"`
	Extra   float64 `json:"LMEN_EXTRA_HIELO"`
}

// Shifts reports whether the cross-arm at level (1-based) is phase shifted
func (p IcePhaseShift) Shifts(level int) bool {
	if !p.Enabled {
		return false
	}
	switch p.Arms {
	case ShiftFirst:
		return level == 1
	case ShiftSecond:
		return level == 2
	case ShiftThird:
		return level == 3
	case ShiftFirstAndThird:
		return level == 1 || level == 3
	}
	return false
}

// MechanicalParams groups the support geometry parameters
type MechanicalParams struct {
	ChainLength            float64 `json:"Lk"`                         // insulator chain length L_k (m)
	ChainWeight            float64 `json:"PESO_CADENA"`                // daN
	ChainDiameter          float64 `json:"DIAMETRO_CADENA"`            // m
	HADD                   float64 `json:"HADD"`                       // m
	HADDBetweenAnchors     float64 `json:"HADD_ENTRE_AMARRES"`         // m
	HADDGuard              float64 `json:"HADD_HG"`                    // m
	HADDArm                float64 `json:"HADD_LMEN"`                  // m
	MinArmConductor        float64 `json:"LONG_MENSULA_MIN_CONDUCTOR"` // m
	MinArmGuard            float64 `json:"LONG_MENSULA_MIN_GUARDIA"`   // m
	CrossArmWidth          float64 `json:"ANCHO_CRUCETA"`              // m
	ShieldAngle            float64 `json:"ANG_APANTALLAMIENTO"`        // degrees
	MinCableHeight         float64 `json:"ALTURA_MINIMA_CABLE"`        // m
	GuardCentered          bool    `json:"HG_CENTRADO"`
	AutoAdjustGuardArm     bool    `json:"AUTOAJUSTAR_LMENHG"`
	ColumnDiameter         float64 `json:"DIAMETRO_COLUMNA"` // mean exposed width (m)
	ColumnBaseOffset       float64 `json:"OFFSET_COLUMNA_BASE"`
	ColumnInterOffset      float64 `json:"OFFSET_COLUMNA_INTER"`
	StructureWeight        float64 `json:"PESO_ESTRUCTURA"` // daN
	MaxArmSearchIterations int     `json:"MAX_ITER_LMEN"`
}

// CableRestrictions selects the objective and sag caps of the CMC search
type CableRestrictions struct {
	ConductorObjective Objective `json:"objetivo_conductor"`
	GuardObjective     Objective `json:"objetivo_guardia"`
	ConductorMaxSag    float64   `json:"flecha_max_conductor"` // m, 0 = none
	GuardMaxSag        float64   `json:"flecha_max_guardia"`   // m, 0 = none
}

// LoadParams configures the hypothesis engine
type LoadParams struct {
	ReduceBreak  bool   `json:"REDUCIR_TIRO_ROTURA"`
	ReactionNode string `json:"nodo_reaccion"` // node whose height defines the top force, default TOP
}

// FoundationParams configures the Sulzberger solver
type FoundationParams struct {
	Shape          string  `json:"forma"` // "rombica" or "cuadrada"
	C              float64 `json:"C"`     // soil coefficient (kg/m³ per m depth)
	SigmaAdm       float64 `json:"sigma_adm"`
	Beta           float64 `json:"beta"` // earth-cone flare (degrees)
	Mu             float64 `json:"mu"`
	FSRequired     float64 `json:"FS_req"`
	TgAlphaAdm     float64 `json:"tg_alfa_adm"`
	CbCt           float64 `json:"cacb"`
	GammaConcrete  float64 `json:"gamma_hormigon"`
	GammaSoil      float64 `json:"gamma_tierra"`
	T0             float64 `json:"t_inicial"`
	A0             float64 `json:"a_inicial"`
	B0             float64 `json:"b_inicial"`
	TMax           float64 `json:"t_max"`
	MaxIterations  int     `json:"max_iteraciones"`
	SlendernessMax float64 `json:"esbeltez_max"`
}

// PoleParams configures the pole selector
type PoleParams struct {
	Strategy         string  `json:"estrategia_altura"` // "PrioridadGalibo" or "PrioridadLongitud"
	ForceCount       int     `json:"FORZAR_N_POSTES"`
	ForceOrientation string  `json:"FORZAR_ORIENTACION"`
	Tested           bool    `json:"ensayada"`
	TopExtension     float64 `json:"EXTENSION_CIMA"`
	CataloguePath    string  `json:"catalogo_postes"`
}

// CostParams holds unit prices used by the costing step
type CostParams struct {
	PolePerKg      decimal.Decimal `json:"precio_poste_kg"`
	ConcreteM3     decimal.Decimal `json:"precio_hormigon_m3"`
	ExcavationM3   decimal.Decimal `json:"precio_excavacion_m3"`
	CrossArmPerM   decimal.Decimal `json:"precio_mensula_m"`
	InsulatorChain decimal.Decimal `json:"precio_cadena"`
	GuardFitting   decimal.Decimal `json:"precio_morseteria_hg"`
	Currency       string          `json:"moneda"`
}

// StructureConfig is the frozen input record of a calculation run
type StructureConfig struct {
	Name           string            `json:"nombre_estructura"`
	NominalVoltage float64           `json:"TENSION"` // kV
	Type           aea.StructureType `json:"tipo_estructura"`
	Terrain        aea.Terrain       `json:"zona_estructura"`
	Exposure       aea.Exposure      `json:"exposicion"`
	Class          aea.LineClass     `json:"clase"`
	Disposition    aea.Disposition   `json:"disposicion"`
	Circuits       Circuits          `json:"terna"`
	GuardCount     int               `json:"cant_hg"`
	Conductor      string            `json:"cable_conductor_id"`
	Guard1         string            `json:"cable_guardia_id"`
	Guard2         string            `json:"cable_guardia2_id"`
	Span           float64           `json:"L_vano"`         // m
	DeviationAngle float64           `json:"alpha"`          // degrees
	LevelPre       float64           `json:"desnivel_pre"`   // m
	LevelPost      float64           `json:"desnivel_post"`  // m

	States       ClimaticStates    `json:"estados_climaticos"`
	Wind         WindParams        `json:"viento"`
	Clearance    ClearanceParams   `json:"distancias"`
	Altitude     AltitudeParams    `json:"altitud"`
	IceShift     IcePhaseShift     `json:"defasaje_hielo"`
	Mechanical   MechanicalParams  `json:"parametros_mecanicos"`
	Restrictions CableRestrictions `json:"restricciones_cables"`
	Loads        LoadParams        `json:"cargas"`
	Foundation   FoundationParams  `json:"fundacion"`
	Pole         PoleParams        `json:"postes"`
	Costs        CostParams        `json:"costos"`
}

// LoadStructure reads a structure configuration JSON file, applies defaults and validates it
func LoadStructure(path string) (*StructureConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg StructureConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse structure config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a complete 132 kV triangular suspension configuration
func Default() StructureConfig {
	cfg := StructureConfig{
		Name:           "estructura",
		NominalVoltage: 132,
		Type:           aea.StructureSuspension,
		Terrain:        aea.TerrainRural,
		Exposure:       aea.ExposureC,
		Class:          aea.ClassC,
		Disposition:    aea.DispositionTriangular,
		Circuits:       CircuitSimple,
		GuardCount:     2,
		Conductor:      "AlAc_300_50",
		Guard1:         "OPGW_48",
		Guard2:         "OPGW_48",
		Span:           300,
		States:         DefaultStates(),
		Mechanical: MechanicalParams{
			ChainLength: 2.5,
			ShieldAngle: 30,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset optional parameters
func (c *StructureConfig) ApplyDefaults() {
	if c.Circuits == "" {
		c.Circuits = CircuitSimple
	}
	if c.Type == "" {
		c.Type = aea.StructureSuspension
	}

	w := &c.Wind
	if w.Vmax == 0 {
		w.Vmax = maxStateWind(c.States)
	}
	if w.Vmed == 0 {
		w.Vmed = 0.4 * w.Vmax
	}
	setDefault(&w.ConductorHeight, 10)
	setDefault(&w.GuardHeight, 12)
	setDefault(&w.CfCable, 1.0)
	setDefault(&w.CfStructure, 0.7)
	setDefault(&w.CfChain, 1.2)

	if c.Altitude.Method == "" {
		c.Altitude.Method = aea.AltitudeMethodAEA
	}

	m := &c.Mechanical
	setDefault(&m.ChainDiameter, 0.25)
	setDefault(&m.MinArmConductor, 0.5)
	setDefault(&m.MinArmGuard, 0.3)
	setDefault(&m.CrossArmWidth, 0.2)
	setDefault(&m.ShieldAngle, 30)
	setDefault(&m.MinCableHeight, 6.0)
	setDefault(&m.ColumnDiameter, 0.35)
	if m.MaxArmSearchIterations == 0 {
		m.MaxArmSearchIterations = 1000
	}

	r := &c.Restrictions
	if r.ConductorObjective == "" {
		r.ConductorObjective = ObjectiveMinSag
	}
	if r.GuardObjective == "" {
		r.GuardObjective = ObjectiveMinTension
	}

	if c.Loads.ReactionNode == "" {
		c.Loads.ReactionNode = "TOP"
	}

	f := &c.Foundation
	if f.Shape == "" {
		f.Shape = "rombica"
	}
	setDefault(&f.C, 5e6)
	setDefault(&f.SigmaAdm, 50000)
	setDefault(&f.Beta, 8)
	setDefault(&f.Mu, 0.4)
	setDefault(&f.FSRequired, 1.5)
	setDefault(&f.TgAlphaAdm, 0.01)
	setDefault(&f.CbCt, 1.2)
	setDefault(&f.GammaConcrete, 2200)
	setDefault(&f.GammaSoil, 1600)
	setDefault(&f.T0, 1.7)
	setDefault(&f.A0, 1.3)
	setDefault(&f.B0, 1.3)
	setDefault(&f.TMax, 3.0)
	setDefault(&f.SlendernessMax, 1.25)
	if f.MaxIterations == 0 {
		f.MaxIterations = 10000
	}

	p := &c.Pole
	if p.Strategy == "" {
		p.Strategy = "PrioridadGalibo"
	}
	setDefault(&p.TopExtension, 1.0)

	k := &c.Costs
	setDecimal(&k.PolePerKg, "1.10")
	setDecimal(&k.ConcreteM3, "180")
	setDecimal(&k.ExcavationM3, "35")
	setDecimal(&k.CrossArmPerM, "95")
	setDecimal(&k.InsulatorChain, "420")
	setDecimal(&k.GuardFitting, "150")
	if k.Currency == "" {
		k.Currency = "USD"
	}
}

func setDefault(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

func setDecimal(v *decimal.Decimal, def string) {
	if v.IsZero() {
		*v = decimal.RequireFromString(def)
	}
}

func maxStateWind(states ClimaticStates) float64 {
	var v float64
	for _, s := range states {
		v = math.Max(v, s.WindVelocity)
	}
	return v
}

// Validate checks required fields and enum ranges
func (c *StructureConfig) Validate() error {
	if c.Name == "" {
		return invalid("nombre_estructura", "must not be empty")
	}
	if c.NominalVoltage <= 0 {
		return invalid("TENSION", "must be positive, got %.2f", c.NominalVoltage)
	}
	if c.Span <= 0 {
		return invalid("L_vano", "must be positive, got %.2f", c.Span)
	}
	if _, err := c.Type.KC(); err != nil {
		return invalid("tipo_estructura", "%v", err)
	}
	if _, err := c.Terrain.MinimumClearance(); err != nil {
		return invalid("zona_estructura", "%v", err)
	}
	if _, err := c.Exposure.Params(); err != nil {
		return invalid("exposicion", "%v", err)
	}
	if _, err := c.Class.LoadFactor(); err != nil {
		return invalid("clase", "%v", err)
	}
	if !c.Disposition.Valid() {
		return invalid("disposicion", "unknown disposition %q", string(c.Disposition))
	}
	if c.Circuits != CircuitSimple && c.Circuits != CircuitDouble {
		return invalid("terna", "must be Simple or Doble, got %q", string(c.Circuits))
	}
	if c.Disposition == aea.DispositionHorizontal && c.Circuits == CircuitDouble {
		return invalid("terna", "horizontal disposition supports a single circuit only")
	}
	if c.Conductor == "" {
		return invalid("cable_conductor_id", "must not be empty")
	}
	if c.GuardCount < 0 || c.GuardCount > 2 {
		return invalid("cant_hg", "must be 0, 1 or 2, got %d", c.GuardCount)
	}
	if c.GuardCount >= 1 && c.Guard1 == "" {
		return invalid("cable_guardia_id", "required when cant_hg >= 1")
	}
	if c.GuardCount == 2 && c.Guard2 == "" {
		return invalid("cable_guardia2_id", "required when cant_hg = 2")
	}
	if c.GuardCount == 1 && !c.Mechanical.GuardCentered &&
		!(c.Disposition == aea.DispositionTriangular && c.Circuits == CircuitSimple) {
		return invalid("HG_CENTRADO", "an off-axis single ground wire requires a triangular simple circuit")
	}
	if len(c.States) == 0 {
		return invalid("estados_climaticos", "at least one climatic state is required")
	}
	seen := make(map[string]bool, len(c.States))
	for _, s := range c.States {
		if s.ID == "" {
			return invalid("estados_climaticos", "state with empty id")
		}
		if seen[s.ID] {
			return invalid("estados_climaticos", "duplicate state %s", s.ID)
		}
		seen[s.ID] = true
		if s.IceThickness < 0 || s.WindVelocity < 0 {
			return invalid("estados_climaticos."+s.ID, "wind and ice must be non-negative")
		}
		if s.MaxTensionFraction < 0 || s.MaxTensionFraction >= 1 {
			return invalid("estados_climaticos."+s.ID, "restriccion_tension must be in [0, 1)")
		}
	}
	m := c.Mechanical
	if m.ChainLength < 0 {
		return invalid("Lk", "must not be negative")
	}
	if m.ShieldAngle <= 0 || m.ShieldAngle >= 90 {
		return invalid("ANG_APANTALLAMIENTO", "must be in (0, 90) degrees")
	}
	for _, o := range []Objective{c.Restrictions.ConductorObjective, c.Restrictions.GuardObjective} {
		if o != ObjectiveMinSag && o != ObjectiveMinTension {
			return invalid("restricciones_cables", "unknown objective %q", string(o))
		}
	}
	if c.Foundation.Shape != "rombica" && c.Foundation.Shape != "cuadrada" {
		return invalid("fundacion.forma", "must be rombica or cuadrada")
	}
	if c.Pole.ForceCount < 0 || c.Pole.ForceCount > 3 {
		return invalid("FORZAR_N_POSTES", "must be 0..3")
	}
	return nil
}

// GuardIDs returns the ground-wire cable ids in use
func (c *StructureConfig) GuardIDs() []string {
	switch c.GuardCount {
	case 1:
		return []string{c.Guard1}
	case 2:
		return []string{c.Guard1, c.Guard2}
	}
	return nil
}

// CableIDs returns every referenced cable id, conductor first
func (c *StructureConfig) CableIDs() []string {
	return append([]string{c.Conductor}, c.GuardIDs()...)
}

// Clone returns a deep copy so callers can derive variants without aliasing
func (c StructureConfig) Clone() StructureConfig {
	out := c
	out.States = append(ClimaticStates(nil), c.States...)
	return out
}

// Levels returns the number of conductor cross-arm levels of the disposition
func (c *StructureConfig) Levels() int {
	switch c.Disposition {
	case aea.DispositionVertical:
		return 3
	case aea.DispositionTriangular:
		return 2
	}
	return 1
}
