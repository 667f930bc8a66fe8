package cmd

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/agerpk/estructural/internal/cache"
	"github.com/agerpk/estructural/internal/config"
	"github.com/agerpk/estructural/internal/diagram"
	"github.com/agerpk/estructural/internal/geometry"
	"github.com/agerpk/estructural/internal/pipeline"
)

const (
	rule  = "═══════════════════════════════════════════════════════════════"
	thin  = "───────────────────────────────────────────────────────────────"
	check = "✓"
	warn  = "⚠"
)

func header(out io.Writer, title string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "     %s\n", title)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out)
}

func section(out io.Writer, title string) {
	fmt.Fprintf(out, "%s:\n", title)
	fmt.Fprintln(out, thin)
}

func table(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func mark(ok bool) string {
	if ok {
		return check
	}
	return warn
}

func warnings(out io.Writer, ws []string) {
	if len(ws) == 0 {
		return
	}
	section(out, "WARNINGS")
	for _, w := range ws {
		fmt.Fprintf(out, "  %s %s\n", warn, w)
	}
	fmt.Fprintln(out)
}

// printResults prints the target calculation of a run
func printResults(out io.Writer, k cache.Kind, res *pipeline.Results, cfg *config.StructureConfig) {
	switch k {
	case cache.KindCMC:
		printCMC(out, res)
	case cache.KindDGE:
		printDGE(out, res)
	case cache.KindDME:
		printDME(out, res)
	case cache.KindArboles:
		printArboles(out, res)
	case cache.KindSPH:
		printSPH(out, res)
	case cache.KindFUND:
		printFUND(out, res, cfg.Foundation.FSRequired)
	case cache.KindCosteo:
		printCosteo(out, res)
	}
	fmt.Fprintf(out, "  hash %s\n\n", res.Hash)
}

func printCMC(out io.Writer, res *pipeline.Results) {
	header(out, "CABLE MECHANICS (CMC) - AEA 95301")
	type cableRow struct {
		role string
		idx  int
	}
	all := []cableRow{{"CONDUCTOR", -1}}
	for i := range res.CMC.Guards {
		all = append(all, cableRow{fmt.Sprintf("GUARD %d", i+1), i})
	}
	for _, c := range all {
		r := res.CMC.Conductor
		if c.idx >= 0 {
			r = res.CMC.Guards[c.idx]
		}
		section(out, fmt.Sprintf("%s %s", c.role, r.CableID))
		w := table(out)
		fmt.Fprintln(w, "  state\tσ daN/mm²\tT daN\tsag m\tres. sag m\t% UTS\tswing °")
		for _, s := range r.States {
			fmt.Fprintf(w, "  %s\t%.3f\t%.1f\t%.3f\t%.3f\t%.1f\t%.1f\n",
				s.State, s.Stress, s.Tension, s.Sag, s.ResultantSag, s.PercentUltimate, s.SwingAngle)
		}
		w.Flush()
		fmt.Fprintf(out, "  basic state %s, limited by %s, converged %s\n\n", r.BasicState, r.Limiter, mark(r.Converged))
		fmt.Fprintln(out, diagram.SagChart(r))
		fmt.Fprintln(out)
	}
}

func printDGE(out io.Writer, res *pipeline.Results) {
	g := res.DGE
	header(out, "STRUCTURE GEOMETRY (DGE) - AEA 95301")
	section(out, "DIMENSIONS")
	w := table(out)
	d := g.Dimensions
	fmt.Fprintf(w, "  Total height:\t%.2f m\n", d.Height)
	fmt.Fprintf(w, "  h1a / h2a / h3a:\t%.2f / %.2f / %.2f m\n", d.H1a, d.H2a, d.H3a)
	fmt.Fprintf(w, "  Lmen1 / Lmen2 / Lmen3:\t%.2f / %.2f / %.2f m\n", d.Lmen1, d.Lmen2, d.Lmen3)
	fmt.Fprintf(w, "  Guard height / arm:\t%.2f / %.2f m\n", d.HHG, d.LmenHG)
	w.Flush()
	fmt.Fprintln(out)

	section(out, "NODES")
	w = table(out)
	fmt.Fprintln(w, "  node\tkind\tx\ty\tz\tcable")
	for _, n := range g.Nodes {
		fmt.Fprintf(w, "  %s\t%s\t%.2f\t%.2f\t%.2f\t%s\n", n.Name, n.Kind, n.X, n.Y, n.Z, n.CableID)
	}
	w.Flush()
	fmt.Fprintln(out)

	section(out, "CLEARANCE MARGINS")
	w = table(out)
	kinds := make([]geometry.ZoneKind, 0, len(g.Clearances))
	for k := range g.Clearances {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		m := g.Clearances[k]
		fmt.Fprintf(w, "  %s:\t%.3f m %s\n", k, m, mark(m >= 0))
	}
	fmt.Fprintf(w, "  Shielded:\t%s\n", mark(g.Shielded))
	w.Flush()
	fmt.Fprintln(out)
	warnings(out, g.Warnings)
}

func printDME(out io.Writer, res *pipeline.Results) {
	header(out, "MECHANICAL LOADS (DME) - AEA 95301")
	section(out, "BASE REACTIONS")
	w := table(out)
	fmt.Fprintln(w, "  hyp.\tFx daN\tFy daN\tFz daN\tMx daN·m\tMy daN·m\tMz daN·m\tTres daN\tangle °")
	for _, r := range res.DME.Reactions {
		fmt.Fprintf(w, "  %s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n",
			r.Code, r.Fx, r.Fy, r.Fz, r.Mx, r.My, r.Mz, r.Tres, r.Angle)
	}
	w.Flush()
	fmt.Fprintln(out)
}

func printArboles(out io.Writer, res *pipeline.Results) {
	header(out, "LOAD TREES (ARBOLES)")
	for _, t := range res.Arboles.Trees {
		fmt.Fprint(out, diagram.TreeTable(t))
		if t.File != "" {
			fmt.Fprintf(out, "  → %s\n", t.File)
		}
		fmt.Fprintln(out)
	}
	for _, f := range []string{res.Arboles.Silhouette, res.Arboles.Polar, res.Arboles.Bars} {
		if f != "" {
			fmt.Fprintf(out, "  → %s\n", f)
		}
	}
	fmt.Fprintln(out)
}

func printSPH(out io.Writer, res *pipeline.Results) {
	s := res.SPH
	header(out, "CONCRETE POLE SELECTION (SPH) - IRAM 1605")
	section(out, "HEIGHTS")
	w := table(out)
	fmt.Fprintf(w, "  Required above ground:\t%.2f m\n", s.Heights.Required)
	fmt.Fprintf(w, "  Commercial length:\t%.1f m\n", s.Heights.Commercial)
	fmt.Fprintf(w, "  Free height:\t%.2f m\n", s.Heights.Free)
	fmt.Fprintf(w, "  Embedment:\t%.2f m\n", s.Heights.Embedment)
	w.Flush()
	fmt.Fprintln(out)

	section(out, "CONFIGURATIONS")
	w = table(out)
	fmt.Fprintln(w, "  configuration\tn\thyp.\tF_elu daN\tRc daN\tn·Rc daN\t")
	for _, c := range s.Candidates {
		adopted := ""
		if c.Configuration == s.Adopted.Configuration {
			adopted = check
		}
		fmt.Fprintf(w, "  %s\t%d\t%s\t%.1f\t%.0f\t%.0f\t%s\n",
			c.Configuration, c.Poles, c.Governing, c.FELU, c.RcAdopted, c.Installed, adopted)
	}
	w.Flush()
	fmt.Fprintln(out)

	fmt.Fprint(out, diagram.DrawSummaryBox("ADOPTED", []string{
		fmt.Sprintf("%d x %.1f/%.0f (%s)", s.Adopted.Poles, s.Pole.Length, s.Pole.Strength, s.Adopted.Configuration),
		fmt.Sprintf("Rt = %.0f daN (Mz max %.1f daN·m)", s.Rt, s.MzMax),
	}))
	fmt.Fprintln(out)
	warnings(out, s.Warnings)
}

func printFUND(out io.Writer, res *pipeline.Results, fsRequired float64) {
	d := res.FUND
	header(out, "SULZBERGER FOUNDATION (FUND)")
	section(out, "LOAD CASES")
	w := table(out)
	fmt.Fprintln(w, "  hyp.\tt m\ta m\tb m\tV m³\tFS transv.\tFS long.\titer.\t")
	for _, c := range d.Cases {
		fmt.Fprintf(w, "  %s\t%.2f\t%.2f\t%.2f\t%.3f\t%.2f\t%.2f\t%d\t%s\n",
			c.Input.Hypothesis, c.T, c.A, c.B, c.Volume, c.Transverse.FS, c.Longitudinal.FS, c.Iterations, mark(c.Converged))
	}
	w.Flush()
	fmt.Fprintln(out)

	a := d.Adopted
	fmt.Fprint(out, diagram.DrawSummaryBox("ADOPTED FOOTING", []string{
		fmt.Sprintf("governing hypothesis %s", d.Governing),
		fmt.Sprintf("t x a x b = %.2f x %.2f x %.2f m", a.T, a.A, a.B),
		fmt.Sprintf("concrete volume %.3f m³", a.Volume),
	}))
	fmt.Fprintln(out)
	if len(a.Trace) > 0 {
		fmt.Fprintln(out, diagram.TraceChart(a.Trace, fsRequired))
		fmt.Fprintln(out)
	}
}

func printCosteo(out io.Writer, res *pipeline.Results) {
	c := res.Costeo
	header(out, "STRUCTURE COST (COSTEO)")
	w := table(out)
	fmt.Fprintln(w, "  item\tunit\tqty\tunit price\tamount")
	for _, it := range c.Items {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", it.Concept, it.Unit,
			it.Quantity.StringFixed(3), it.UnitPrice.StringFixed(2), it.Amount.StringFixed(2))
	}
	w.Flush()
	fmt.Fprintln(out)
	fmt.Fprint(out, diagram.DrawSummaryBox("TOTAL", []string{
		fmt.Sprintf("per structure %s %s", c.PerStructure.StringFixed(2), c.Currency),
		fmt.Sprintf("per km %s %s (%s structures/km)", c.PerKm.StringFixed(2), c.Currency, c.StructuresKm.String()),
	}))
	fmt.Fprintln(out)
}

func printSweep(out io.Writer, s *pipeline.SpanSweep) {
	header(out, "ECONOMIC SPAN")
	w := table(out)
	fmt.Fprintln(w, "  span m\tstructure\tcost/km\t")
	for _, sp := range s.Spans {
		if sp.Err != "" {
			fmt.Fprintf(w, "  %.0f\t%s\t-\t%s %s\n", sp.Span, sp.Structure, warn, sp.Err)
			continue
		}
		fmt.Fprintf(w, "  %.0f\t%s\t%s\t\n", sp.Span, sp.Structure, sp.PerKm.StringFixed(2))
	}
	w.Flush()
	fmt.Fprintln(out)
	if s.Cheapest != nil {
		fmt.Fprint(out, diagram.DrawSummaryBox("ECONOMIC SPAN", []string{
			fmt.Sprintf("L = %.0f m, %s per km", s.Cheapest.Span, s.Cheapest.PerKm.StringFixed(2)),
		}))
		fmt.Fprintln(out)
	}
}
