package diagram

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/agerpk/estructural/internal/geometry"
	"github.com/agerpk/estructural/internal/loads"
)

var (
	memberColor = map[geometry.ConnectionKind]color.Color{
		geometry.ConnColumn:   color.Black,
		geometry.ConnArm:      color.RGBA{R: 0, G: 0, B: 139, A: 255},
		geometry.ConnCrossbar: color.RGBA{R: 139, G: 69, B: 19, A: 255},
	}
	nodeColor = map[geometry.NodeKind]color.Color{
		geometry.KindConductor: color.RGBA{R: 220, G: 20, B: 60, A: 255},
		geometry.KindGuard:     color.RGBA{R: 34, G: 139, B: 34, A: 255},
		geometry.KindWind:      color.RGBA{R: 100, G: 149, B: 237, A: 255},
	}
	arrowColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// save writes the plot, picking the format from the file extension
func save(p *plot.Plot, width, height vg.Length, filename string) error {
	if dir := filepath.Dir(filename); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	switch filepath.Ext(filename) {
	case ".png", ".svg", ".pdf", ".jpg", ".jpeg":
		return p.Save(width, height, filename)
	default:
		return p.Save(width, height, filename+".png")
	}
}

type point struct{ x, z float64 }

func members(p *plot.Plot, nodes map[string]point, conns []geometry.Connection) error {
	for _, c := range conns {
		a, okA := nodes[c.From]
		b, okB := nodes[c.To]
		if !okA || !okB {
			continue
		}
		line, err := plotter.NewLine(plotter.XYs{{X: a.x, Y: a.z}, {X: b.x, Y: b.z}})
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = color.Black
		if col, ok := memberColor[c.Kind]; ok {
			line.LineStyle.Color = col
		}
		p.Add(line)
	}
	return nil
}

// bounds returns the x and z extent of a set of points
func bounds(pts []point) (minX, maxX, minZ, maxZ float64) {
	minX, minZ = math.Inf(1), math.Inf(1)
	maxX, maxZ = math.Inf(-1), math.Inf(-1)
	for _, q := range pts {
		minX, maxX = math.Min(minX, q.x), math.Max(maxX, q.x)
		minZ, maxZ = math.Min(minZ, q.z), math.Max(maxZ, q.z)
	}
	return
}

// ExportTree draws the transverse view of a load tree. Arrows show the
// transverse and vertical components; labels carry all three forces.
func ExportTree(t Tree, filename string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Árbol de cargas %s", t.Hypothesis)
	if t.Description != "" {
		p.Title.Text += " - " + t.Description
	}
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "z (m)"
	p.Add(plotter.NewGrid())

	nodes := make(map[string]point, len(t.Nodes))
	var pts []point
	for _, n := range t.Nodes {
		nodes[n.Name] = point{n.X, n.Z}
		pts = append(pts, point{n.X, n.Z})
	}
	if err := members(p, nodes, t.Members); err != nil {
		return err
	}

	_, _, minZ, maxZ := bounds(pts)
	scale := 0.0
	if t.MaxForce > 0 {
		scale = 0.15 * (maxZ - minZ) / t.MaxForce
	}

	var tips plotter.XYs
	var labels plotter.XYLabels
	for _, n := range t.Nodes {
		fx, fy, fz := n.Load[0], n.Load[1], n.Load[2]
		if math.Abs(fx)+math.Abs(fy)+math.Abs(fz) < 1e-9 {
			continue
		}
		// compression is reported positive, so a positive Fz points down
		tip := plotter.XY{X: n.X + fx*scale, Y: n.Z - fz*scale}
		arrow, err := plotter.NewLine(plotter.XYs{{X: n.X, Y: n.Z}, tip})
		if err != nil {
			return err
		}
		arrow.LineStyle.Width = vg.Points(1.5)
		arrow.LineStyle.Color = arrowColor
		p.Add(arrow)
		tips = append(tips, tip)
		labels.XYs = append(labels.XYs, plotter.XY{X: n.X, Y: n.Z})
		labels.Labels = append(labels.Labels, fmt.Sprintf("%s\n%.0f/%.0f/%.0f", n.Name, fx, fy, fz))
	}
	if len(tips) > 0 {
		sc, err := plotter.NewScatter(tips)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Shape = draw.TriangleGlyph{}
		sc.GlyphStyle.Color = arrowColor
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)

		l, err := plotter.NewLabels(labels)
		if err != nil {
			return err
		}
		p.Add(l)
	}
	return save(p, 8*vg.Inch, 10*vg.Inch, filename)
}

// ExportSilhouette draws the support with its nodes coloured by kind
func ExportSilhouette(g *geometry.Result, filename string) error {
	p := plot.New()
	p.Title.Text = "Estructura"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "z (m)"
	p.Add(plotter.NewGrid())

	nodes := make(map[string]point, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes[n.Name] = point{n.X, n.Z}
	}
	if err := members(p, nodes, g.Connections); err != nil {
		return err
	}

	byKind := map[geometry.NodeKind]plotter.XYs{}
	var labels plotter.XYLabels
	for _, n := range g.Nodes {
		byKind[n.Kind] = append(byKind[n.Kind], plotter.XY{X: n.X, Y: n.Z})
		if n.IsCable() {
			labels.XYs = append(labels.XYs, plotter.XY{X: n.X, Y: n.Z})
			labels.Labels = append(labels.Labels, n.Name)
		}
	}
	for _, kind := range []geometry.NodeKind{geometry.KindBase, geometry.KindCross, geometry.KindGeneral, geometry.KindWind, geometry.KindConductor, geometry.KindGuard} {
		xys, ok := byKind[kind]
		if !ok {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(4)
		sc.GlyphStyle.Color = color.Gray{Y: 96}
		if col, ok := nodeColor[kind]; ok {
			sc.GlyphStyle.Color = col
		}
		p.Add(sc)
		p.Legend.Add(string(kind), sc)
	}
	if len(labels.XYs) > 0 {
		l, err := plotter.NewLabels(labels)
		if err != nil {
			return err
		}
		p.Add(l)
	}
	return save(p, 6*vg.Inch, 9*vg.Inch, filename)
}

// ExportReactionPolar plots the horizontal base reaction of each hypothesis
// in the (Fx, Fy) plane
func ExportReactionPolar(reactions []loads.Reaction, filename string) error {
	if len(reactions) == 0 {
		return fmt.Errorf("no reactions to plot")
	}
	p := plot.New()
	p.Title.Text = "Reacciones horizontales en la base"
	p.X.Label.Text = "Fx transversal (daN)"
	p.Y.Label.Text = "Fy longitudinal (daN)"
	p.Add(plotter.NewGrid())

	var tips plotter.XYs
	var labels plotter.XYLabels
	for _, r := range reactions {
		tip := plotter.XY{X: r.Fx, Y: r.Fy}
		ray, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, tip})
		if err != nil {
			return err
		}
		ray.LineStyle.Color = color.RGBA{R: 100, G: 149, B: 237, A: 255}
		p.Add(ray)
		tips = append(tips, tip)
		labels.XYs = append(labels.XYs, tip)
		labels.Labels = append(labels.Labels, r.Code)
	}
	sc, err := plotter.NewScatter(tips)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Color = arrowColor
	p.Add(sc)
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return err
	}
	p.Add(l)
	return save(p, 8*vg.Inch, 8*vg.Inch, filename)
}

// ExportReactionBars compares the resultant horizontal reaction and the
// vertical load across hypotheses
func ExportReactionBars(reactions []loads.Reaction, filename string) error {
	if len(reactions) == 0 {
		return fmt.Errorf("no reactions to plot")
	}
	p := plot.New()
	p.Title.Text = "Reacciones por hipótesis"
	p.Y.Label.Text = "daN"

	tres := make(plotter.Values, len(reactions))
	fz := make(plotter.Values, len(reactions))
	names := make([]string, len(reactions))
	for i, r := range reactions {
		tres[i], fz[i], names[i] = r.Tres, r.Fz, r.Code
	}
	w := vg.Points(12)
	horizontal, err := plotter.NewBarChart(tres, w)
	if err != nil {
		return err
	}
	horizontal.Color = color.RGBA{R: 100, G: 149, B: 237, A: 255}
	horizontal.Offset = -w / 2
	vertical, err := plotter.NewBarChart(fz, w)
	if err != nil {
		return err
	}
	vertical.Color = color.RGBA{R: 139, G: 69, B: 19, A: 255}
	vertical.Offset = w / 2

	p.Add(horizontal, vertical)
	p.Legend.Add("Tres", horizontal)
	p.Legend.Add("Fz", vertical)
	p.Legend.Top = true
	p.NominalX(names...)
	return save(p, 10*vg.Inch, 6*vg.Inch, filename)
}
