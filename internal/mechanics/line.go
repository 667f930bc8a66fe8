package mechanics

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/agerpk/estructural/internal/cable"
	"github.com/agerpk/estructural/internal/config"
)

// LineResult groups the CMC solution of the conductor and the ground wires
type LineResult struct {
	Conductor Result   `json:"conductor"`
	Guards    []Result `json:"guardias"`
}

// Fmax returns the conductor maximum vertical sag used by the geometry engine
func (l LineResult) Fmax() float64 {
	return l.Conductor.MaxSag()
}

// GuardFmax returns the largest ground-wire vertical sag, 0 without ground wires
func (l LineResult) GuardFmax() float64 {
	var f float64
	for _, g := range l.Guards {
		if s := g.MaxSag(); s > f {
			f = s
		}
	}
	return f
}

// Converged reports whether every cable found a feasible optimum
func (l LineResult) Converged() bool {
	if !l.Conductor.Converged {
		return false
	}
	for _, g := range l.Guards {
		if !g.Converged {
			return false
		}
	}
	return true
}

// NewWindTable builds the wind cache of a cable from the structure configuration
func NewWindTable(cfg *config.StructureConfig, c cable.Cable, height float64) (*cable.WindTable, error) {
	exp, err := cfg.Exposure.Params()
	if err != nil {
		return nil, err
	}
	fc, err := cfg.Class.LoadFactor()
	if err != nil {
		return nil, err
	}
	return cable.NewWindTable(c, cable.WindParams{
		Exposure: exp,
		Fc:       fc,
		Height:   height,
		Span:     cfg.Span,
		Cf:       cfg.Wind.CfCable,
		Vmax:     cfg.Wind.Vmax,
		Vmed:     cfg.Wind.Vmed,
	}), nil
}

// SolveLine optimises the conductor first, then every ground wire against it.
// Non-convergence is reported through the results, never as an error.
func SolveLine(cfg *config.StructureConfig, cat cable.Catalogue, logger *zap.Logger) (*LineResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cond, err := cat.Get(cfg.Conductor)
	if err != nil {
		return nil, fmt.Errorf("cable_conductor_id: %w", err)
	}
	wt, err := NewWindTable(cfg, cond, cfg.Wind.ConductorHeight)
	if err != nil {
		return nil, err
	}
	p := Problem{
		Cable:     cond,
		Span:      cfg.Span,
		LevelPre:  cfg.LevelPre,
		LevelPost: cfg.LevelPost,
		States:    cfg.States,
		Wind:      wt,
		Objective: cfg.Restrictions.ConductorObjective,
		MaxSag:    cfg.Restrictions.ConductorMaxSag,
	}
	out := &LineResult{Conductor: p.Optimize()}
	logResult(logger, out.Conductor)

	for i, id := range cfg.GuardIDs() {
		g, err := cat.Get(id)
		if err != nil {
			return nil, fmt.Errorf("guardia %d: %w", i+1, err)
		}
		wt, err := NewWindTable(cfg, g, cfg.Wind.GuardHeight)
		if err != nil {
			return nil, err
		}
		ref := out.Conductor
		gp := Problem{
			Cable:     g,
			Span:      cfg.Span,
			LevelPre:  cfg.LevelPre,
			LevelPost: cfg.LevelPost,
			States:    cfg.States,
			Wind:      wt,
			Objective: cfg.Restrictions.GuardObjective,
			MaxSag:    cfg.Restrictions.GuardMaxSag,
		}
		if ref.Converged {
			gp.Reference = &ref
		}
		r := gp.Optimize()
		logResult(logger, r)
		out.Guards = append(out.Guards, r)
	}
	return out, nil
}

func logResult(logger *zap.Logger, r Result) {
	if !r.Converged {
		logger.Warn("cable optimum not found",
			zap.String("cable", r.CableID),
			zap.String("limiter", r.Limiter))
		return
	}
	logger.Debug("cable optimum",
		zap.String("cable", r.CableID),
		zap.String("objective", string(r.Objective)),
		zap.Float64("tension_dan", r.OptimalTension),
		zap.String("basic_state", r.BasicState),
		zap.String("limiter", r.Limiter),
		zap.Int("iterations", r.Iterations))
}
