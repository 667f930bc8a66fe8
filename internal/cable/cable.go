package cable

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/agerpk/estructural/internal/aea"
)

// ErrUnknownCable is returned when a configuration references a cable id missing from the catalogue
var ErrUnknownCable = errors.New("unknown cable")

// Cable is an immutable catalogue record
type Cable struct {
	ID               string  `json:"-"`
	DiameterMM       float64 `json:"diametro_total_mm"`
	SectionMM2       float64 `json:"seccion_total_mm2"`
	UnitWeight       float64 `json:"peso_unitario_dan_m"`         // daN/m
	UltimateLoad     float64 `json:"carga_rotura_minima_dan"`     // daN
	ElasticModulus   float64 `json:"modulo_elasticidad_dan_mm2"`  // daN/mm²
	ThermalExpansion float64 `json:"coeficiente_dilatacion_1_c"`  // 1/°C
	Material         string  `json:"material"`

	// extra keeps catalogue keys the core does not interpret
	extra map[string]json.RawMessage
}

var knownKeys = map[string]bool{
	"diametro_total_mm": true, "seccion_total_mm2": true, "peso_unitario_dan_m": true,
	"carga_rotura_minima_dan": true, "modulo_elasticidad_dan_mm2": true,
	"coeficiente_dilatacion_1_c": true, "material": true,
}

type cableWire Cable

func (c *Cable) UnmarshalJSON(data []byte) error {
	var w cableWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k, v := range all {
		if knownKeys[k] {
			continue
		}
		if w.extra == nil {
			w.extra = make(map[string]json.RawMessage)
		}
		w.extra[k] = v
	}
	*c = Cable(w)
	return nil
}

func (c Cable) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(cableWire(c))
	if err != nil {
		return nil, err
	}
	if len(c.extra) == 0 {
		return base, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(base, &all); err != nil {
		return nil, err
	}
	for k, v := range c.extra {
		all[k] = v
	}
	return json.Marshal(all)
}

// Diameter returns the bare diameter in metres
func (c Cable) Diameter() float64 {
	return c.DiameterMM / 1000
}

// EquivalentDiameter returns d_eq = d + 2·t_ice (m)
func (c Cable) EquivalentDiameter(iceThickness float64) float64 {
	return c.Diameter() + 2*iceThickness
}

// IceWeight returns the ice-sleeve unit weight (daN/m) for a radial thickness (m)
func (c Cable) IceWeight(iceThickness float64) float64 {
	if iceThickness <= 0 {
		return 0
	}
	d := c.Diameter()
	deq := c.EquivalentDiameter(iceThickness)
	area := math.Pi / 4 * (deq*deq - d*d)
	return area * aea.IceDensity * aea.Gravity / 10
}

// UltimateStress returns σ_ult in daN/mm²
func (c Cable) UltimateStress() float64 {
	return c.UltimateLoad / c.SectionMM2
}

// Validate checks the physical attributes are usable by the solvers
func (c Cable) Validate() error {
	switch {
	case c.DiameterMM <= 0:
		return fmt.Errorf("cable %s: diametro_total_mm must be positive", c.ID)
	case c.SectionMM2 <= 0:
		return fmt.Errorf("cable %s: seccion_total_mm2 must be positive", c.ID)
	case c.UnitWeight <= 0:
		return fmt.Errorf("cable %s: peso_unitario_dan_m must be positive", c.ID)
	case c.UltimateLoad <= 0:
		return fmt.Errorf("cable %s: carga_rotura_minima_dan must be positive", c.ID)
	case c.ElasticModulus <= 0:
		return fmt.Errorf("cable %s: modulo_elasticidad_dan_mm2 must be positive", c.ID)
	}
	return nil
}

// Catalogue maps cable id to record. Read-only once loaded.
type Catalogue map[string]Cable

// LoadCatalogue reads the cable catalogue JSON ({id: {...}})
func LoadCatalogue(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalogue(data)
}

// ParseCatalogue decodes and validates catalogue JSON
func ParseCatalogue(data []byte) (Catalogue, error) {
	var cat Catalogue
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse cable catalogue: %w", err)
	}
	for id, c := range cat {
		c.ID = id
		if err := c.Validate(); err != nil {
			return nil, err
		}
		cat[id] = c
	}
	return cat, nil
}

// Get returns the cable with the given id
func (cat Catalogue) Get(id string) (Cable, error) {
	c, ok := cat[id]
	if !ok {
		return Cable{}, fmt.Errorf("%w: %q", ErrUnknownCable, id)
	}
	c.ID = id
	return c, nil
}

// Subset returns the entries referenced by ids, for fingerprinting
func (cat Catalogue) Subset(ids []string) (Catalogue, error) {
	out := make(Catalogue, len(ids))
	for _, id := range ids {
		c, err := cat.Get(id)
		if err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, nil
}

// IDs returns the sorted catalogue ids
func (cat Catalogue) IDs() []string {
	ids := make([]string, 0, len(cat))
	for id := range cat {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
