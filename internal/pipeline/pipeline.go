package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/cable"
	"github.com/agerpk/estructural/internal/cache"
	"github.com/agerpk/estructural/internal/config"
	"github.com/agerpk/estructural/internal/costing"
	"github.com/agerpk/estructural/internal/diagram"
	"github.com/agerpk/estructural/internal/foundation"
	"github.com/agerpk/estructural/internal/geometry"
	"github.com/agerpk/estructural/internal/loads"
	"github.com/agerpk/estructural/internal/mechanics"
	"github.com/agerpk/estructural/internal/pole"
)

// ErrDependencyFailed wraps the failure of an automatic dependency rerun
var ErrDependencyFailed = errors.New("dependency calculation failed")

// CalculationContext is everything a calculation needs. It is passed by
// value; the catalogues are read-only.
type CalculationContext struct {
	Config     *config.StructureConfig
	Catalogue  cable.Catalogue
	Hypotheses aea.Catalogue
	Poles      pole.Catalogue
	Store      *cache.Store
	Logger     *zap.Logger
	OutputDir  string // images are written here when set
}

// Trees is the ARBOLES payload
type Trees struct {
	Trees      []diagram.Tree `json:"arboles"`
	Silhouette string         `json:"estructura,omitempty"`
	Polar      string         `json:"reacciones_polar,omitempty"`
	Bars       string         `json:"reacciones_barras,omitempty"`
}

// Results holds the typed output of every calculation that has run or been
// read from the cache
type Results struct {
	Hash    string
	CMC     *mechanics.LineResult
	DGE     *geometry.Result
	DME     *loads.Result
	Arboles *Trees
	SPH     *pole.Result
	FUND    *foundation.Design
	Costeo  *costing.Result
}

// slot returns a pointer to the result field of a calculation, for decoding
func (r *Results) slot(k cache.Kind) any {
	switch k {
	case cache.KindCMC:
		r.CMC = new(mechanics.LineResult)
		return r.CMC
	case cache.KindDGE:
		r.DGE = new(geometry.Result)
		return r.DGE
	case cache.KindDME:
		r.DME = new(loads.Result)
		return r.DME
	case cache.KindArboles:
		r.Arboles = new(Trees)
		return r.Arboles
	case cache.KindSPH:
		r.SPH = new(pole.Result)
		return r.SPH
	case cache.KindFUND:
		r.FUND = new(foundation.Design)
		return r.FUND
	case cache.KindCosteo:
		r.Costeo = new(costing.Result)
		return r.Costeo
	}
	return nil
}

// Runner executes calculations, reusing fresh cache entries for dependencies
type Runner struct {
	ctx    CalculationContext
	logger *zap.Logger
	res    Results
	ready  map[cache.Kind]bool
}

// NewRunner validates the context and fingerprints the configuration
func NewRunner(ctx CalculationContext) (*Runner, error) {
	if ctx.Config == nil {
		return nil, fmt.Errorf("calculation context has no configuration")
	}
	if err := ctx.Config.Validate(); err != nil {
		return nil, err
	}
	if ctx.Store == nil {
		return nil, fmt.Errorf("calculation context has no cache store")
	}
	if len(ctx.Hypotheses) == 0 {
		ctx.Hypotheses = aea.DefaultCatalogue()
	}
	if len(ctx.Poles) == 0 {
		if path := ctx.Config.Pole.CataloguePath; path != "" {
			cat, err := pole.LoadCatalogue(path)
			if err != nil {
				return nil, err
			}
			ctx.Poles = cat
		} else {
			ctx.Poles = pole.DefaultCatalogue()
		}
	}
	if ctx.Logger == nil {
		ctx.Logger = zap.NewNop()
	}
	hash, err := cache.Fingerprint(ctx.Config, ctx.Catalogue, ctx.Hypotheses)
	if err != nil {
		return nil, err
	}
	logger := ctx.Logger.With(zap.String("estructura", ctx.Config.Name), zap.String("hash", hash))
	return &Runner{
		ctx:    ctx,
		logger: logger,
		res:    Results{Hash: hash},
		ready:  make(map[cache.Kind]bool),
	}, nil
}

// Hash returns the configuration fingerprint
func (r *Runner) Hash() string {
	return r.res.Hash
}

// Run makes sure every dependency of k is available, from a fresh cache entry
// or by recomputing it, then computes k and stores it
func (r *Runner) Run(k cache.Kind) (*Results, error) {
	order := cache.Order(k)
	for _, dep := range order[:len(order)-1] {
		if err := r.ensure(dep); err != nil {
			return nil, fmt.Errorf("%s: %w: %s: %w", k, ErrDependencyFailed, dep, err)
		}
	}
	if err := r.execute(k); err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return &r.res, nil
}

// ensure loads k from the cache when its fingerprint matches, else reruns it
func (r *Runner) ensure(k cache.Kind) error {
	if r.ready[k] {
		return nil
	}
	name := r.ctx.Config.Name
	e, err := r.ctx.Store.Fresh(name, k, r.res.Hash)
	if err == nil {
		err = e.Decode(r.res.slot(k))
	}
	switch {
	case err == nil:
		r.logger.Debug("cache hit", zap.String("calculo", string(k)), zap.String("id_ejecucion", e.RunID))
		r.ready[k] = true
		return nil
	case errors.Is(err, cache.ErrStale):
		r.logger.Info("cache stale, rerunning", zap.String("calculo", string(k)))
	case errors.Is(err, cache.ErrNoEntry):
		r.logger.Info("cache miss, running", zap.String("calculo", string(k)))
	default:
		return err
	}
	return r.execute(k)
}

// execute computes k from the results already in place and stores it
func (r *Runner) execute(k cache.Kind) error {
	r.logger.Info("calculation start", zap.String("calculo", string(k)))
	payload, err := r.compute(k)
	if err != nil {
		return err
	}
	e, err := r.ctx.Store.Save(r.ctx.Config.Name, k, r.res.Hash, payload)
	if err != nil {
		return fmt.Errorf("save %s: %w", k, err)
	}
	r.ready[k] = true
	r.logger.Info("calculation done", zap.String("calculo", string(k)), zap.String("id_ejecucion", e.RunID))
	return nil
}

func (r *Runner) compute(k cache.Kind) (any, error) {
	ctx, res := r.ctx, &r.res
	switch k {
	case cache.KindCMC:
		line, err := mechanics.SolveLine(ctx.Config, ctx.Catalogue, r.logger)
		if err != nil {
			return nil, err
		}
		if !line.Converged() {
			r.logger.Warn("cable mechanics did not converge", zap.String("limitante", line.Conductor.Limiter))
		}
		res.CMC = line
		return line, nil

	case cache.KindDGE:
		cond, err := ctx.Catalogue.Get(ctx.Config.Conductor)
		if err != nil {
			return nil, err
		}
		g, err := geometry.Solve(geometry.Input{Config: ctx.Config, Conductor: cond, Fmax: res.CMC.Fmax()}, r.logger)
		if err != nil {
			return nil, err
		}
		res.DGE = g
		return g, nil

	case cache.KindDME:
		l, err := loads.Compute(loads.Input{
			Config:     ctx.Config,
			Cables:     ctx.Catalogue,
			Geometry:   res.DGE,
			Mechanics:  res.CMC,
			Hypotheses: ctx.Hypotheses,
		}, r.logger)
		if err != nil {
			return nil, err
		}
		res.DME = l
		return l, nil

	case cache.KindArboles:
		trees, err := r.trees()
		if err != nil {
			return nil, err
		}
		res.Arboles = trees
		return trees, nil

	case cache.KindSPH:
		p := ctx.Config.Pole
		strategy := pole.Strategy(p.Strategy)
		heights, _ := pole.Allocate(res.DGE.Dimensions.Height+p.TopExtension, strategy)
		sel, err := pole.Select(pole.Request{
			Forces:           pole.TopForces(res.DME.Reactions, heights.Free),
			TopHeight:        res.DGE.Dimensions.Height,
			Extension:        p.TopExtension,
			Type:             ctx.Config.Type,
			Tested:           p.Tested,
			Strategy:         strategy,
			ForceCount:       p.ForceCount,
			ForceOrientation: p.ForceOrientation,
			Catalogue:        ctx.Poles,
		}, r.logger)
		if err != nil {
			return nil, err
		}
		res.SPH = sel
		return sel, nil

	case cache.KindFUND:
		solver, err := foundation.NewSolver(ctx.Config.Foundation)
		if err != nil {
			return nil, err
		}
		d, err := solver.SizeAll(FoundationBase(res.SPH), res.DME.Reactions, r.logger)
		if err != nil {
			return nil, err
		}
		res.FUND = d
		return d, nil

	case cache.KindCosteo:
		c, err := costing.Compute(costing.Input{
			Config:     ctx.Config,
			Geometry:   res.DGE,
			Pole:       res.SPH,
			Foundation: res.FUND,
		}, r.logger)
		if err != nil {
			return nil, err
		}
		res.Costeo = c
		return c, nil
	}
	return nil, fmt.Errorf("unknown calculation %q", k)
}

// FoundationBase derives the footing load case from the adopted poles:
// their weight, length, free height, embedment and mean buried diameter
func FoundationBase(sel *pole.Result) foundation.Input {
	n := sel.Adopted.Poles
	he := sel.Heights.Embedment
	return foundation.Input{
		Gp:    sel.Pole.Weight * float64(n),
		H:     sel.Heights.Commercial,
		Hl:    sel.Heights.Free,
		He:    he,
		Dc:    sel.Pole.EmbeddedDiameter(he),
		Poles: n,
	}
}

func (r *Runner) trees() (*Trees, error) {
	res := &r.res
	trees, err := diagram.BuildTrees(res.DGE, res.DME, r.ctx.Hypotheses)
	if err != nil {
		return nil, err
	}
	out := &Trees{Trees: trees}
	dir := r.ctx.OutputDir
	if dir == "" {
		return out, nil
	}
	name := r.ctx.Config.Name
	if err := diagram.ExportTrees(out.Trees, dir, name); err != nil {
		return nil, err
	}
	out.Silhouette = name + ".estructura.png"
	out.Polar = name + ".reacciones_polar.png"
	out.Bars = name + ".reacciones_barras.png"
	if err := diagram.ExportSilhouette(res.DGE, filepath.Join(dir, out.Silhouette)); err != nil {
		return nil, err
	}
	if err := diagram.ExportReactionPolar(res.DME.Reactions, filepath.Join(dir, out.Polar)); err != nil {
		return nil, err
	}
	if err := diagram.ExportReactionBars(res.DME.Reactions, filepath.Join(dir, out.Bars)); err != nil {
		return nil, err
	}
	r.logger.Info("load trees exported", zap.Int("arboles", len(out.Trees)), zap.String("dir", dir))
	return out, nil
}
