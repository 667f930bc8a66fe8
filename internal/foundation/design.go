package foundation

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/agerpk/estructural/internal/loads"
)

// Design is the footing sized under every load hypothesis
type Design struct {
	Cases     []Result `json:"casos"`
	Governing string   `json:"hipotesis_dimensionante"`
	Adopted   Result   `json:"adoptada"`
	Converged bool     `json:"convergio"`
}

// FromReaction converts a base reaction (daN, daN·m) into a load case for a
// force height hl, keeping the base overturning moments
func FromReaction(base Input, r loads.Reaction) Input {
	in := base
	in.Hypothesis = r.Code
	in.Tx = math.Abs(r.My) / base.Hl * kgfPerDaN
	in.Ty = math.Abs(r.Mx) / base.Hl * kgfPerDaN
	in.Fz = r.Fz * kgfPerDaN
	return in
}

// SizeAll reruns the sizing loop per hypothesis and adopts the largest footing
func (s *Solver) SizeAll(base Input, reactions []loads.Reaction, logger *zap.Logger) (*Design, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(reactions) == 0 {
		return nil, fmt.Errorf("no reactions to size the foundation for")
	}
	d := &Design{Converged: true}
	for _, re := range reactions {
		r, err := s.Size(FromReaction(base, re))
		if err != nil {
			return nil, fmt.Errorf("hipotesis %s: %w", re.Code, err)
		}
		if !r.Converged {
			d.Converged = false
			logger.Warn("foundation did not converge",
				zap.String("hipotesis", re.Code),
				zap.Int("iteraciones", r.Iterations))
		}
		d.Cases = append(d.Cases, r)
		if d.Governing == "" || r.Volume > d.Adopted.Volume {
			d.Governing, d.Adopted = re.Code, r
		}
	}
	logger.Info("foundation sized",
		zap.String("hipotesis", d.Governing),
		zap.Float64("t", d.Adopted.T),
		zap.Float64("a", d.Adopted.A),
		zap.Float64("b", d.Adopted.B),
		zap.Float64("volumen", d.Adopted.Volume))
	return d, nil
}
