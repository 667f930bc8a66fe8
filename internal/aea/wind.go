package aea

import "math"

// WindInput collects everything the AEA 95301 wind formula needs for one element
type WindInput struct {
	Exposure ExposureParams
	Fc       float64 // line class load factor
	Height   float64 // effective height Z (m)
	Velocity float64 // basic wind velocity V (m/s)
	Cf       float64 // force coefficient
	Diameter float64 // exposed width (m)
	AngleDeg float64 // angle between wind and element axis (degrees)
	Span     float64 // wind span L for cables (m); ignored for rigid elements
	Rigid    bool    // structure element (cos law, B_t) instead of cable (sin law, B_w)
}

// VelocityHeightFactor computes Z_p = 1.61·(Z/Z_s)^(1/α)
func VelocityHeightFactor(e ExposureParams, z float64) float64 {
	z = math.Max(z, MinWindHeight)
	return 1.61 * math.Pow(z/e.Zs, 1/e.Alpha)
}

// turbulence computes E = 4.9·√k·(10/Z)^(1/α)
func turbulence(e ExposureParams, z float64) float64 {
	z = math.Max(z, MinWindHeight)
	return 4.9 * math.Sqrt(e.K) * math.Pow(10/z, 1/e.Alpha)
}

// CableGustFactor computes G_w = (1 + 2.7·E·√B_w)/k_v² with B_w = 1/(1 + 0.8·L/L_s).
// The division by k_v² is kept as the standard's worksheets apply it.
func CableGustFactor(e ExposureParams, z, span float64) float64 {
	bw := 1 / (1 + 0.8*span/e.Ls)
	return (1 + 2.7*turbulence(e, z)*math.Sqrt(bw)) / (GustKv * GustKv)
}

// StructureGustFactor computes G_t = (1 + 2.7·E·√B_t)/k_v² with B_t = 1/(1 + 0.375·Z/L_s)
func StructureGustFactor(e ExposureParams, z float64) float64 {
	z = math.Max(z, MinWindHeight)
	bt := 1 / (1 + 0.375*z/e.Ls)
	return (1 + 2.7*turbulence(e, z)*math.Sqrt(bt)) / (GustKv * GustKv)
}

// WindForce computes F_u = Q·(Z_p·V)²·F_c·G·C_f·d·f(φ).
// Cables use sin φ, rigid elements cos φ. Result in N per metre of element.
func WindForce(in WindInput) float64 {
	if in.Velocity == 0 || in.Diameter == 0 {
		return 0
	}
	zp := VelocityHeightFactor(in.Exposure, in.Height)
	var g, angle float64
	phi := in.AngleDeg * math.Pi / 180
	if in.Rigid {
		g = StructureGustFactor(in.Exposure, in.Height)
		angle = math.Cos(phi)
	} else {
		g = CableGustFactor(in.Exposure, in.Height, in.Span)
		angle = math.Sin(phi)
	}
	v := zp * in.Velocity
	return AirDensityFactor * v * v * in.Fc * g * in.Cf * in.Diameter * math.Abs(angle)
}

// NewtonToDaN converts N to daN
func NewtonToDaN(n float64) float64 {
	return n / 10
}
