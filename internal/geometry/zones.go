package geometry

import "math"

// Tolerance is the clearance underrun accepted by the verifier (m)
const Tolerance = 0.01

// ProfileShape selects how an offset profile varies between its references
type ProfileShape string

const (
	ShapeRect      ProfileShape = "rectangular"
	ShapeTrapezoid ProfileShape = "trapecio"
	ShapeTriangle  ProfileShape = "triangular"
)

// OffsetProfile shifts a zone linearly along its reference coordinate
// (z for columns, x for cross-arms)
type OffsetProfile struct {
	RefMin, RefMax float64
	Begin, End     float64
	Shape          ProfileShape
}

// At evaluates the profile at ref
func (p *OffsetProfile) At(ref float64) float64 {
	if p == nil {
		return 0
	}
	span := p.RefMax - p.RefMin
	if span <= 0 || p.Shape == ShapeRect {
		return p.Begin
	}
	u := math.Max(0, math.Min(1, (ref-p.RefMin)/span))
	if p.Shape == ShapeTriangle {
		// peaks at the midpoint
		u = 1 - math.Abs(2*u-1)
	}
	return p.Begin + u*(p.End-p.Begin)
}

// Zone is a forbidden region around a structural element or cable
type Zone interface {
	// Distance returns the gaps to the element along x and z and the signed
	// clearance margin: negative inside the zone
	Distance(x, z float64) (dx, dz, min float64)
	Contains(x, z float64) bool
	Kind() ZoneKind
	Source() string
}

// ZoneKind groups zones for the verifier report
type ZoneKind string

const (
	ZoneColumn    ZoneKind = "columna"
	ZoneCrossArm  ZoneKind = "mensula"
	ZonePhase     ZoneKind = "fase"
	ZoneGuardWire ZoneKind = "guardia"
)

// rectangleMargin is the signed distance from a point to an axis-aligned
// rectangle given the outside gaps along each axis
func rectangleMargin(dx, dz float64) float64 {
	if dx > 0 || dz > 0 {
		return math.Hypot(math.Max(dx, 0), math.Max(dz, 0))
	}
	return math.Max(dx, dz)
}

// VerticalStrip is a column member dilated by a clearance
type VerticalStrip struct {
	X          float64
	ZMin, ZMax float64
	HalfWidth  float64 // member half width (m)
	Clearance  float64
	Offset     *OffsetProfile // axis shift along z
	Taper      *OffsetProfile // extra half width along z
	Name       string
	kind       ZoneKind
}

func (s VerticalStrip) Distance(x, z float64) (float64, float64, float64) {
	zc := math.Max(s.ZMin, math.Min(s.ZMax, z))
	axis := s.X + s.Offset.At(zc)
	half := s.HalfWidth + s.Taper.At(zc)
	dx := math.Abs(x-axis) - half
	dz := math.Max(s.ZMin-z, z-s.ZMax)
	return dx, dz, rectangleMargin(dx, dz) - s.Clearance
}

func (s VerticalStrip) Contains(x, z float64) bool {
	_, _, m := s.Distance(x, z)
	return m < 0
}

func (s VerticalStrip) Kind() ZoneKind {
	if s.kind == "" {
		return ZoneColumn
	}
	return s.kind
}

func (s VerticalStrip) Source() string { return s.Name }

// HorizontalStrip is a cross-arm member dilated by a clearance
type HorizontalStrip struct {
	XMin, XMax float64
	Z          float64
	HalfHeight float64
	Clearance  float64
	Offset     *OffsetProfile // axis shift along x
	Name       string
}

func (s HorizontalStrip) Distance(x, z float64) (float64, float64, float64) {
	xc := math.Max(s.XMin, math.Min(s.XMax, x))
	axis := s.Z + s.Offset.At(xc)
	dz := math.Abs(z-axis) - s.HalfHeight
	dx := math.Max(s.XMin-x, x-s.XMax)
	return dx, dz, rectangleMargin(dx, dz) - s.Clearance
}

func (s HorizontalStrip) Contains(x, z float64) bool {
	_, _, m := s.Distance(x, z)
	return m < 0
}

func (s HorizontalStrip) Kind() ZoneKind { return ZoneCrossArm }
func (s HorizontalStrip) Source() string { return s.Name }

// Circle is a minimum-distance zone around a cable.
// With a cutoff, points above ZCutoff are outside the zone.
type Circle struct {
	CX, CZ  float64
	Radius  float64
	ZCutoff *float64
	Name    string
	kind    ZoneKind
}

func (c Circle) Distance(x, z float64) (float64, float64, float64) {
	dx, dz := x-c.CX, z-c.CZ
	if c.ZCutoff != nil && z > *c.ZCutoff {
		return dx, dz, math.Inf(1)
	}
	return dx, dz, math.Hypot(dx, dz) - c.Radius
}

func (c Circle) Contains(x, z float64) bool {
	_, _, m := c.Distance(x, z)
	return m < 0
}

func (c Circle) Kind() ZoneKind {
	if c.kind == "" {
		return ZonePhase
	}
	return c.kind
}

func (c Circle) Source() string { return c.Name }
