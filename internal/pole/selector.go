package pole

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/loads"
)

// Configuration is a pole arrangement
type Configuration string

const (
	Monopole             Configuration = "Monoposte"
	BipoleTransverse     Configuration = "Biposte Transversal"
	BipoleLongitudinal   Configuration = "Biposte Longitudinal"
	Tripole              Configuration = "Triposte"
	OrientationTransv                  = "Transversal"
	OrientationLongitud                = "Longitudinal"
)

// Configurations lists the arrangements in tie-break order
var Configurations = []Configuration{Monopole, BipoleTransverse, BipoleLongitudinal, Tripole}

// Poles returns the number of poles of the arrangement
func (c Configuration) Poles() int {
	switch c {
	case BipoleTransverse, BipoleLongitudinal:
		return 2
	case Tripole:
		return 3
	}
	return 1
}

// Orientation returns the bipole orientation, empty otherwise
func (c Configuration) Orientation() string {
	switch c {
	case BipoleTransverse:
		return OrientationTransv
	case BipoleLongitudinal:
		return OrientationLongitud
	}
	return ""
}

// Force combines the top forces into the force one pole must resist
func (c Configuration) Force(fx, fy float64) float64 {
	switch c {
	case BipoleTransverse:
		return math.Hypot(fx/8, fy/2)
	case BipoleLongitudinal:
		return math.Hypot(fx/2, fy/8)
	case Tripole:
		return math.Hypot(fx, fy) / 9
	}
	return math.Hypot(fx, fy)
}

// Strategy allocates the commercial length between free height and embedment
type Strategy string

const (
	PriorityClearance   Strategy = "PrioridadGalibo"
	PriorityTotalLength Strategy = "PrioridadLongitud"
)

// TopForce is the force at the pole top of one hypothesis (daN, daN·m)
type TopForce struct {
	Code string  `json:"hipotesis"`
	Fx   float64 `json:"Fx"`
	Fy   float64 `json:"Fy"`
	Mz   float64 `json:"Mz"`
}

// Request is everything the selector needs
type Request struct {
	Forces           []TopForce
	TopHeight        float64 // highest structure node above ground (m)
	Extension        float64 // extra free height above the top node (m)
	Type             aea.StructureType
	Tested           bool
	Strategy         Strategy
	ForceCount       int
	ForceOrientation string
	Catalogue        Catalogue
}

// Heights is the length allocation of the adopted pole
type Heights struct {
	Required   float64 `json:"altura_libre_requerida"`
	Free       float64 `json:"altura_libre"`
	Commercial float64 `json:"longitud_comercial"`
	Embedment  float64 `json:"empotramiento"`
}

// Candidate is the strength requirement of one arrangement
type Candidate struct {
	Configuration Configuration `json:"configuracion"`
	Poles         int           `json:"n_postes"`
	Governing     string        `json:"hipotesis_elu"`
	FELU          float64       `json:"F_elu"`
	FA0           float64       `json:"F_A0"`
	RcLRFD        float64       `json:"Rc_lrfd"`
	RcService     float64       `json:"Rc_servicio"`
	RcTransport   float64       `json:"Rc_transporte"`
	RcAdopted     float64       `json:"Rc_adoptada"`
	Installed     float64       `json:"resistencia_instalada"`
}

// Result is the SPH output
type Result struct {
	Heights    Heights     `json:"alturas"`
	Candidates []Candidate `json:"candidatos"`
	Adopted    Candidate   `json:"adoptado"`
	Pole       Entry       `json:"poste"`
	MzMax      float64     `json:"Mz_max"`
	RtRequired float64     `json:"Rt_requerida"`
	RtIRAM     float64     `json:"Rt_iram"`
	Rt         float64     `json:"Rt_adoptada"`
	Warnings   []string    `json:"advertencias"`
}

// ceilHalf rounds up to the next 0.5 m
func ceilHalf(v float64) float64 {
	return math.Ceil(v*2-1e-9) / 2
}

func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}

// Allocate splits the commercial length so the embedment is at least 10 %
func Allocate(required float64, s Strategy) (Heights, string) {
	h := Heights{Required: required}
	switch s {
	case PriorityTotalLength:
		h.Commercial = roundHalf(required / 0.9)
		h.Embedment = math.Max(h.Commercial-required, h.Commercial/10)
	default:
		h.Commercial = ceilHalf(required / 0.9)
		h.Embedment = h.Commercial - required
	}
	h.Free = h.Commercial - h.Embedment
	var warning string
	if h.Free < required-1e-9 {
		warning = fmt.Sprintf("altura libre reducida a %.2f m (requerida %.2f m)", h.Free, required)
	}
	return h, warning
}

func (r Request) validate() error {
	if len(r.Forces) == 0 {
		return fmt.Errorf("no top forces to select a pole for")
	}
	if r.TopHeight <= 0 {
		return fmt.Errorf("top height must be positive, got %.2f", r.TopHeight)
	}
	if r.ForceCount < 0 || r.ForceCount > 3 {
		return fmt.Errorf("FORZAR_N_POSTES must be 0..3, got %d", r.ForceCount)
	}
	return nil
}

// Select picks the arrangement with the least installed strength
// (n_postes · Rc) unless one is forced, sizes its pole and checks torsion
func Select(req Request, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	kc, err := req.Type.KC()
	if err != nil {
		return nil, err
	}
	ke := 1.1
	if req.Tested {
		ke = 1.0
	}
	if len(req.Catalogue) == 0 {
		req.Catalogue = DefaultCatalogue()
	}

	res := &Result{}
	heights, warning := Allocate(req.TopHeight+req.Extension, req.Strategy)
	res.Heights = heights
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}

	for _, cfg := range Configurations {
		c := Candidate{Configuration: cfg, Poles: cfg.Poles()}
		for _, f := range req.Forces {
			force := cfg.Force(f.Fx, f.Fy)
			if f.Code == "A0" {
				c.FA0 = force
				continue
			}
			if c.Governing == "" || force > c.FELU {
				c.FELU, c.Governing = force, f.Code
			}
		}
		c.RcLRFD = ke * kc * c.FELU / aea.PhiBending
		c.RcService = c.FA0 / aea.CoefServ
		c.RcTransport = aea.TransportMinimum(heights.Commercial)
		c.RcAdopted = aea.RoundUpHundred(math.Max(c.RcLRFD, math.Max(c.RcService, c.RcTransport)))
		c.Installed = float64(c.Poles) * c.RcAdopted
		res.Candidates = append(res.Candidates, c)
	}

	adopted := -1
	for i, c := range res.Candidates {
		if req.ForceCount > 0 {
			if c.Poles != req.ForceCount {
				continue
			}
			if c.Poles == 2 && req.ForceOrientation != "" && c.Configuration.Orientation() != req.ForceOrientation {
				continue
			}
		}
		if adopted < 0 || c.Installed < res.Candidates[adopted].Installed-1e-9 {
			adopted = i
		}
	}
	if adopted < 0 {
		return nil, fmt.Errorf("no pole arrangement matches FORZAR_N_POSTES=%d FORZAR_ORIENTACION=%q", req.ForceCount, req.ForceOrientation)
	}
	res.Adopted = res.Candidates[adopted]

	entry, warning, err := req.Catalogue.Lookup(heights.Commercial, res.Adopted.RcAdopted)
	if err != nil {
		return nil, err
	}
	res.Pole = entry
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}

	for _, f := range req.Forces {
		res.MzMax = math.Max(res.MzMax, math.Abs(f.Mz))
	}
	res.RtRequired = ke * kc * res.MzMax / float64(res.Adopted.Poles) / aea.PhiTorsion
	res.RtIRAM = aea.TorsionMinimum(res.Adopted.RcAdopted)
	res.Rt = math.Max(res.RtRequired, res.RtIRAM)

	for _, w := range res.Warnings {
		logger.Warn("pole selection", zap.String("warning", w))
	}
	logger.Info("pole adopted",
		zap.String("configuracion", string(res.Adopted.Configuration)),
		zap.Float64("longitud", heights.Commercial),
		zap.Float64("rc", res.Adopted.RcAdopted),
		zap.Float64("rt", res.Rt))
	return res, nil
}

// TopForces reduces base reactions to equivalent forces at a pole of free
// height hl
func TopForces(reactions []loads.Reaction, hl float64) []TopForce {
	out := make([]TopForce, 0, len(reactions))
	for _, r := range reactions {
		out = append(out, TopForce{
			Code: r.Code,
			Fx:   math.Abs(r.My) / hl,
			Fy:   math.Abs(r.Mx) / hl,
			Mz:   r.Mz,
		})
	}
	return out
}
