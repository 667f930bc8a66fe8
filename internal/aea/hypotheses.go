package aea

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Magnitude names a load effect a hypothesis can activate
type Magnitude string

const (
	MagWeight          Magnitude = "peso"
	MagIce             Magnitude = "hielo"
	MagWindCables      Magnitude = "viento_cables"
	MagWindStructure   Magnitude = "viento_estructura"
	MagDeviation       Magnitude = "tiro_desvio"
	MagBrokenConductor Magnitude = "rotura_conductor"
	MagBrokenGuard     Magnitude = "rotura_guardia"
	MagUnbalanced      Magnitude = "desequilibrio"
	MagUnilateral      Magnitude = "tiro_unilateral"
)

var knownMagnitudes = map[Magnitude]bool{
	MagWeight: true, MagIce: true, MagWindCables: true, MagWindStructure: true,
	MagDeviation: true, MagBrokenConductor: true, MagBrokenGuard: true,
	MagUnbalanced: true, MagUnilateral: true,
}

// Hypothesis is an AEA 95301 load hypothesis: a climatic state plus scaled magnitudes
type Hypothesis struct {
	Code        string                `json:"codigo"`
	Description string                `json:"descripcion"`
	State       string                `json:"estado"`
	WindAzimuth float64               `json:"azimut_viento"` // 90 = transverse, 0 = longitudinal
	Magnitudes  map[Magnitude]float64 `json:"magnitudes"`
}

// Factor returns the factor of a magnitude, zero when inactive
func (h Hypothesis) Factor(m Magnitude) float64 {
	return h.Magnitudes[m]
}

// IsBreakFamily reports whether the hypothesis belongs to the broken-conductor (A5) family
func (h Hypothesis) IsBreakFamily() bool {
	return strings.HasPrefix(h.Code, "A5")
}

// Catalogue is the ordered hypothesis catalogue
type Catalogue []Hypothesis

// Get returns the hypothesis with the given code
func (c Catalogue) Get(code string) (Hypothesis, bool) {
	for _, h := range c {
		if h.Code == code {
			return h, true
		}
	}
	return Hypothesis{}, false
}

// Codes returns hypothesis codes in catalogue order
func (c Catalogue) Codes() []string {
	codes := make([]string, len(c))
	for i, h := range c {
		codes[i] = h.Code
	}
	return codes
}

// Validate checks codes are unique, states are present and magnitudes known
func (c Catalogue) Validate(states []string) error {
	known := make(map[string]bool, len(states))
	for _, s := range states {
		known[s] = true
	}
	seen := make(map[string]bool, len(c))
	for _, h := range c {
		if h.Code == "" {
			return fmt.Errorf("hypothesis without code")
		}
		if seen[h.Code] {
			return fmt.Errorf("duplicate hypothesis %s", h.Code)
		}
		seen[h.Code] = true
		if !known[h.State] {
			return fmt.Errorf("hypothesis %s references unknown climatic state %q", h.Code, h.State)
		}
		for m := range h.Magnitudes {
			if !knownMagnitudes[m] {
				return fmt.Errorf("hypothesis %s uses unknown magnitude %q", h.Code, string(m))
			}
		}
	}
	return nil
}

// masterEntry is the wire form of hipotesis_maestro entries
type masterEntry struct {
	State       string                `json:"estado"`
	Description string                `json:"descripcion"`
	WindAzimuth *float64              `json:"azimut_viento"`
	Magnitudes  map[Magnitude]float64 `json:"magnitudes"`
}

// LoadCatalogue reads a hipotesis_maestro JSON file ({code: {estado, magnitudes}}).
// Hypotheses are ordered by code.
func LoadCatalogue(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]masterEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hypothesis catalogue: %w", err)
	}
	codes := make([]string, 0, len(raw))
	for code := range raw {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	cat := make(Catalogue, 0, len(codes))
	for _, code := range codes {
		e := raw[code]
		azimuth := 90.0
		if e.WindAzimuth != nil {
			azimuth = *e.WindAzimuth
		}
		cat = append(cat, Hypothesis{
			Code:        code,
			Description: e.Description,
			State:       e.State,
			WindAzimuth: azimuth,
			Magnitudes:  e.Magnitudes,
		})
	}
	return cat, nil
}

// DefaultCatalogue returns the AEA 95301 hypotheses for the default climatic
// states I (max temperature), II (min temperature), III (max wind),
// IV (ice + wind) and V (everyday stress).
// Terminal supports add MagUnilateral at load time.
func DefaultCatalogue() Catalogue {
	return Catalogue{
		{
			Code:        "A0",
			Description: "Cargas permanentes",
			State:       "V",
			WindAzimuth: 90,
			Magnitudes:  map[Magnitude]float64{MagWeight: 1},
		},
		{
			Code:        "A1",
			Description: "Viento máximo oblicuo 45°",
			State:       "III",
			WindAzimuth: 45,
			Magnitudes: map[Magnitude]float64{
				MagWeight: 1, MagWindCables: 1, MagWindStructure: 1, MagDeviation: 1,
			},
		},
		{
			Code:        "A2",
			Description: "Viento máximo transversal",
			State:       "III",
			WindAzimuth: 90,
			Magnitudes: map[Magnitude]float64{
				MagWeight: 1, MagWindCables: 1, MagWindStructure: 1, MagDeviation: 1,
			},
		},
		{
			Code:        "A3",
			Description: "Viento máximo longitudinal",
			State:       "III",
			WindAzimuth: 0,
			Magnitudes: map[Magnitude]float64{
				MagWeight: 1, MagWindStructure: 1, MagDeviation: 1,
			},
		},
		{
			Code:        "A4",
			Description: "Hielo con viento reducido",
			State:       "IV",
			WindAzimuth: 90,
			Magnitudes: map[Magnitude]float64{
				MagWeight: 1, MagIce: 1, MagWindCables: 1, MagWindStructure: 1, MagDeviation: 1,
			},
		},
		{
			Code:        "A5",
			Description: "Rotura de conductor",
			State:       "V",
			WindAzimuth: 90,
			Magnitudes: map[Magnitude]float64{
				MagWeight: 1, MagDeviation: 1, MagBrokenConductor: 1,
			},
		},
		{
			Code:        "A6",
			Description: "Rotura de cable de guardia",
			State:       "V",
			WindAzimuth: 90,
			Magnitudes: map[Magnitude]float64{
				MagWeight: 1, MagDeviation: 1, MagBrokenGuard: 1,
			},
		},
		{
			Code:        "A7",
			Description: "Tiro desequilibrado",
			State:       "II",
			WindAzimuth: 90,
			Magnitudes: map[Magnitude]float64{
				MagWeight: 1, MagDeviation: 1, MagUnbalanced: 0.2,
			},
		},
		{
			Code:        "B1",
			Description: "Hielo sin viento",
			State:       "IV",
			WindAzimuth: 90,
			Magnitudes:  map[Magnitude]float64{MagWeight: 1, MagIce: 1},
		},
		{
			Code:        "B2",
			Description: "Hielo con tiro de desvío",
			State:       "IV",
			WindAzimuth: 90,
			Magnitudes:  map[Magnitude]float64{MagWeight: 1, MagIce: 1, MagDeviation: 1},
		},
		{
			Code:        "C1",
			Description: "Montaje",
			State:       "II",
			WindAzimuth: 90,
			Magnitudes:  map[Magnitude]float64{MagWeight: 2, MagBrokenConductor: 1},
		},
		{
			Code:        "C2",
			Description: "Mantenimiento",
			State:       "V",
			WindAzimuth: 90,
			Magnitudes:  map[Magnitude]float64{MagWeight: 1.5, MagDeviation: 1},
		},
	}
}
