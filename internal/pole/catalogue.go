package pole

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/shopspring/decimal"
)

// Entry is a commercial concrete pole
type Entry struct {
	Length       float64         `json:"longitud"`      // m
	Strength     float64         `json:"resistencia"`   // top breaking load (daN)
	BaseDiameter float64         `json:"diametro_base"` // m
	TopDiameter  float64         `json:"diametro_cima"` // m
	Weight       float64         `json:"peso"`          // kg
	Price        decimal.Decimal `json:"precio,omitempty"`
}

// EmbeddedDiameter returns the mean diameter of the buried length he
func (e Entry) EmbeddedDiameter(he float64) float64 {
	if e.Length <= 0 {
		return e.BaseDiameter
	}
	taper := (e.BaseDiameter - e.TopDiameter) / e.Length
	return e.BaseDiameter - taper*he/2
}

// Catalogue is a set of commercial poles sorted by length then strength
type Catalogue []Entry

// LoadCatalogue reads a JSON array of poles
func LoadCatalogue(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat Catalogue
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse pole catalogue: %w", err)
	}
	if len(cat) == 0 {
		return nil, fmt.Errorf("pole catalogue %s is empty", path)
	}
	for _, e := range cat {
		if e.Length <= 0 || e.Strength <= 0 || e.BaseDiameter <= 0 {
			return nil, fmt.Errorf("pole %.1f/%.0f: length, strength and base diameter must be positive", e.Length, e.Strength)
		}
	}
	cat.sort()
	return cat, nil
}

func (c Catalogue) sort() {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Length != c[j].Length {
			return c[i].Length < c[j].Length
		}
		return c[i].Strength < c[j].Strength
	})
}

var (
	defaultLengths   = []float64{9, 10.5, 12, 13.5, 15, 16.5, 18, 19.5, 21, 22.5, 24}
	defaultStrengths = []float64{300, 600, 900, 1200, 1500, 1800, 2400, 3000, 3600, 4800}
)

// DefaultCatalogue returns a grid of centrifuged concrete poles with a
// 1.5 cm/m taper
func DefaultCatalogue() Catalogue {
	var cat Catalogue
	for _, l := range defaultLengths {
		for _, s := range defaultStrengths {
			top := 0.14 + 0.02*math.Sqrt(s/300)
			base := top + 0.015*l
			// hollow shell roughly 6 cm thick at 2500 kg/m³
			mean := (top + base) / 2
			wall := 0.06
			area := math.Pi / 4 * (mean*mean - (mean-2*wall)*(mean-2*wall))
			cat = append(cat, Entry{
				Length:       l,
				Strength:     s,
				TopDiameter:  round(top, 3),
				BaseDiameter: round(base, 3),
				Weight:       math.Round(area * l * 2500),
			})
		}
	}
	return cat
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

func (c Catalogue) find(length, strength float64) (Entry, bool) {
	for _, e := range c {
		if math.Abs(e.Length-length) < 1e-9 && math.Abs(e.Strength-strength) < 1e-9 {
			return e, true
		}
	}
	return Entry{}, false
}

func (c Catalogue) axes() (lengths, strengths []float64) {
	seenL := map[float64]bool{}
	seenS := map[float64]bool{}
	for _, e := range c {
		if !seenL[e.Length] {
			seenL[e.Length] = true
			lengths = append(lengths, e.Length)
		}
		if !seenS[e.Strength] {
			seenS[e.Strength] = true
			strengths = append(strengths, e.Strength)
		}
	}
	sort.Float64s(lengths)
	sort.Float64s(strengths)
	return lengths, strengths
}

// bracket returns the grid values around v
func bracket(axis []float64, v float64) (float64, float64, bool) {
	for i := 0; i < len(axis)-1; i++ {
		if v >= axis[i]-1e-9 && v <= axis[i+1]+1e-9 {
			return axis[i], axis[i+1], true
		}
	}
	return 0, 0, false
}

// Lookup returns the pole of the given length and strength: exact entry,
// bilinear on the grid, then inverse distance over the two nearest entries.
// Requests beyond the largest class are clamped and reported as a warning.
func (c Catalogue) Lookup(length, strength float64) (Entry, string, error) {
	if len(c) == 0 {
		return Entry{}, "", fmt.Errorf("empty pole catalogue")
	}
	lengths, strengths := c.axes()
	var warning string
	if maxS := strengths[len(strengths)-1]; strength > maxS+1e-9 {
		warning = fmt.Sprintf("resistencia %.0f daN fuera de catálogo (máx. %.0f daN): requiere clase mayor", strength, maxS)
		strength = maxS
	}
	if maxL := lengths[len(lengths)-1]; length > maxL+1e-9 {
		msg := fmt.Sprintf("longitud %.1f m fuera de catálogo (máx. %.1f m): requiere clase mayor", length, maxL)
		if warning != "" {
			warning += "; " + msg
		} else {
			warning = msg
		}
		length = maxL
	}
	length = math.Max(length, lengths[0])
	strength = math.Max(strength, strengths[0])

	if e, ok := c.find(length, strength); ok {
		return e, warning, nil
	}
	if e, ok := c.bilinear(lengths, strengths, length, strength); ok {
		return e, warning, nil
	}
	return c.nearest(lengths, strengths, length, strength), warning, nil
}

func (c Catalogue) bilinear(lengths, strengths []float64, length, strength float64) (Entry, bool) {
	l1, l2, okL := bracket(lengths, length)
	s1, s2, okS := bracket(strengths, strength)
	if !okL || !okS {
		return Entry{}, false
	}
	q11, ok11 := c.find(l1, s1)
	q12, ok12 := c.find(l1, s2)
	q21, ok21 := c.find(l2, s1)
	q22, ok22 := c.find(l2, s2)
	if !ok11 || !ok12 || !ok21 || !ok22 {
		return Entry{}, false
	}
	u := fraction(l1, l2, length)
	v := fraction(s1, s2, strength)
	mix := func(f func(Entry) float64) float64 {
		return (1-u)*(1-v)*f(q11) + (1-u)*v*f(q12) + u*(1-v)*f(q21) + u*v*f(q22)
	}
	e := Entry{
		Length:       length,
		Strength:     strength,
		BaseDiameter: mix(func(e Entry) float64 { return e.BaseDiameter }),
		TopDiameter:  mix(func(e Entry) float64 { return e.TopDiameter }),
		Weight:       mix(func(e Entry) float64 { return e.Weight }),
	}
	if !q11.Price.IsZero() && !q12.Price.IsZero() && !q21.Price.IsZero() && !q22.Price.IsZero() {
		e.Price = decimal.NewFromFloat(mix(func(e Entry) float64 { return e.Price.InexactFloat64() })).Round(2)
	}
	return e, true
}

func fraction(a, b, v float64) float64 {
	if b-a < 1e-12 {
		return 0
	}
	return (v - a) / (b - a)
}

// nearest interpolates by inverse distance over the two closest entries in
// the range-normalised (length, strength) plane
func (c Catalogue) nearest(lengths, strengths []float64, length, strength float64) Entry {
	spanL := math.Max(lengths[len(lengths)-1]-lengths[0], 1)
	spanS := math.Max(strengths[len(strengths)-1]-strengths[0], 1)
	type ranked struct {
		e Entry
		d float64
	}
	rs := make([]ranked, len(c))
	for i, e := range c {
		rs[i] = ranked{e, math.Hypot((e.Length-length)/spanL, (e.Strength-strength)/spanS)}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].d < rs[j].d })
	if len(rs) == 1 || rs[0].d < 1e-12 {
		return rs[0].e
	}
	w1, w2 := 1/rs[0].d, 1/rs[1].d
	mix := func(f func(Entry) float64) float64 {
		return (w1*f(rs[0].e) + w2*f(rs[1].e)) / (w1 + w2)
	}
	return Entry{
		Length:       length,
		Strength:     strength,
		BaseDiameter: mix(func(e Entry) float64 { return e.BaseDiameter }),
		TopDiameter:  mix(func(e Entry) float64 { return e.TopDiameter }),
		Weight:       mix(func(e Entry) float64 { return e.Weight }),
	}
}
