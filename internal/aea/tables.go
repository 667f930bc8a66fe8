package aea

import (
	"fmt"
	"math"
)

// AEA 95301-2007 constants

const (
	// Dynamic pressure factor Q (Pa·s²/m²), Section 10.2.2
	AirDensityFactor = 0.613

	// Gust response normalisation k_v
	GustKv = 1.425

	// Ice density (kg/m³)
	IceDensity = 900.0

	// Gravity used to convert kg to daN (kg·9.81/10)
	Gravity = 9.81

	// Minimum reference height for wind formulas (m)
	MinWindHeight = 1.0
)

// Exposure is the terrain wind exposure category (Tabla 10.2-h)
type Exposure string

const (
	ExposureB Exposure = "B"
	ExposureC Exposure = "C"
	ExposureD Exposure = "D"
)

// ExposureParams holds the power-law constants of an exposure category
type ExposureParams struct {
	Alpha float64 // power-law exponent α
	K     float64 // surface drag coefficient k
	Ls    float64 // turbulence scale L_s (m)
	Zs    float64 // gradient height Z_s (m)
}

var exposureTable = map[Exposure]ExposureParams{
	ExposureB: {Alpha: 4.5, K: 0.01, Ls: 52, Zs: 366},
	ExposureC: {Alpha: 7.5, K: 0.005, Ls: 67, Zs: 274},
	ExposureD: {Alpha: 10, K: 0.003, Ls: 76, Zs: 213},
}

// Params returns the Tabla 10.2-h constants for the exposure
func (e Exposure) Params() (ExposureParams, error) {
	p, ok := exposureTable[e]
	if !ok {
		return ExposureParams{}, fmt.Errorf("unknown wind exposure %q", string(e))
	}
	return p, nil
}

// LineClass is the line importance class (Tabla 10.2-b)
type LineClass string

const (
	ClassB  LineClass = "B"
	ClassBB LineClass = "BB"
	ClassC  LineClass = "C"
	ClassD  LineClass = "D"
	ClassE  LineClass = "E"
)

var loadFactorTable = map[LineClass]float64{
	ClassB:  0.93,
	ClassBB: 1.00,
	ClassC:  1.15,
	ClassD:  1.30,
	ClassE:  1.40,
}

// LoadFactor returns the wind load factor F_c of the class
func (c LineClass) LoadFactor() (float64, error) {
	fc, ok := loadFactorTable[c]
	if !ok {
		return 0, fmt.Errorf("unknown line class %q", string(c))
	}
	return fc, nil
}

// Terrain is the zone the line crosses, which fixes the minimum ground clearance
type Terrain string

const (
	TerrainPedestrian Terrain = "Peatonal"
	TerrainRural      Terrain = "Rural"
	TerrainUrban      Terrain = "Urbana"
	TerrainHighway    Terrain = "Ruta"
	TerrainRailway    Terrain = "Ferrocarril"
	TerrainPowerLine  Terrain = "LineaElectrica"
)

var terrainMinimum = map[Terrain]float64{
	TerrainPedestrian: 4.70,
	TerrainRural:      5.90,
	TerrainUrban:      8.38,
	TerrainHighway:    7.00,
	TerrainRailway:    8.50,
	TerrainPowerLine:  1.20,
}

// MinimumClearance returns the base ground clearance a (m) of the zone
func (t Terrain) MinimumClearance() (float64, error) {
	a, ok := terrainMinimum[t]
	if !ok {
		return 0, fmt.Errorf("unknown terrain %q", string(t))
	}
	return a, nil
}

// Disposition is the phase arrangement on the support
type Disposition string

const (
	DispositionVertical   Disposition = "vertical"
	DispositionTriangular Disposition = "triangular"
	DispositionHorizontal Disposition = "horizontal"
)

// Valid reports whether d is a known disposition
func (d Disposition) Valid() bool {
	switch d {
	case DispositionVertical, DispositionTriangular, DispositionHorizontal:
		return true
	}
	return false
}

// StructureType is the mechanical function of the support
type StructureType string

const (
	StructureSuspension StructureType = "Suspension"
	StructureRetention  StructureType = "Retencion"
	StructureTerminal   StructureType = "Terminal"
	StructureSpecial    StructureType = "Especial"
)

var kcTable = map[StructureType]float64{
	StructureSuspension: 1.0,
	StructureRetention:  1.2,
	StructureTerminal:   1.2,
	StructureSpecial:    1.3,
}

// KC returns the structure-type reliability factor K_C
func (s StructureType) KC() (float64, error) {
	kc, ok := kcTable[s]
	if !ok {
		return 0, fmt.Errorf("unknown structure type %q", string(s))
	}
	return kc, nil
}

// HasSwingingChain reports whether insulator chains swing under wind.
// Retention and terminal supports anchor the chain in line with the conductor.
func (s StructureType) HasSwingingChain() bool {
	return s == StructureSuspension || s == StructureSpecial
}

// k coefficient for phase spacing, indexed by disposition and swing band.
// Bands: θ < 40°, 40–55°, 55–65°, > 65°
var kTable = map[Disposition][4]float64{
	DispositionVertical:   {0.55, 0.60, 0.65, 0.70},
	DispositionTriangular: {0.60, 0.65, 0.70, 0.75},
	DispositionHorizontal: {0.70, 0.75, 0.85, 0.95},
}

// KCoefficient returns the phase-spacing coefficient k for a chain swing (degrees)
func KCoefficient(d Disposition, thetaDeg float64) (float64, error) {
	row, ok := kTable[d]
	if !ok {
		return 0, fmt.Errorf("unknown disposition %q", string(d))
	}
	switch {
	case thetaDeg > 65:
		return row[3], nil
	case thetaDeg > 55:
		return row[2], nil
	case thetaDeg >= 40:
		return row[1], nil
	default:
		return row[0], nil
	}
}

var highestVoltage = map[float64]float64{
	13.2: 14.5,
	33:   36,
	66:   72.5,
	132:  145,
	220:  245,
	500:  550,
}

// HighestSystemVoltage returns V_max (kV) for a nominal voltage
func HighestSystemVoltage(vn float64) float64 {
	if v, ok := highestVoltage[vn]; ok {
		return v
	}
	return 1.1 * vn
}

// Altitude correction methods
const (
	AltitudeMethodAEA  = "AEA 3%/300m"
	AltitudeMethodNone = "ninguna"
)

// AltitudeFactor returns K_a for an altitude above sea level (m).
// 3 % per 300 m above 1000 m.
func AltitudeFactor(method string, h float64) float64 {
	if method == AltitudeMethodNone || h <= 1000 {
		return 1
	}
	return 1 + 0.03*(h-1000)/300
}

// PhaseSpacing computes D_fases = k·√(fmax + L_k) + K_a·V_nom/150
func PhaseSpacing(k, fmax, lk, ka, vn float64) float64 {
	return k*math.Sqrt(math.Max(fmax+lk, 0)) + ka*vn/150
}

// GuardSpacing computes D_hg = k·√(fmax + L_k) + K_a·(V_nom/√3)/150
func GuardSpacing(k, fmax, lk, ka, vn float64) float64 {
	return k*math.Sqrt(math.Max(fmax+lk, 0)) + ka*(vn/math.Sqrt(3))/150
}

// StructureClearance computes s = max(0.280 + 0.005·(V_max − 50), V_nom/150)·K_a
func StructureClearance(vn, ka float64) float64 {
	vmax := HighestSystemVoltage(vn)
	return math.Max(0.280+0.005*(vmax-50), vn/150) * ka
}

// VoltageAllowance computes the clearance increment b = 0.01·(V/√3 − 22)·K_a, zero up to 33 kV
func VoltageAllowance(vn, ka float64) float64 {
	if vn <= 33 {
		return 0
	}
	return 0.01 * (vn/math.Sqrt(3) - 22) * ka
}
