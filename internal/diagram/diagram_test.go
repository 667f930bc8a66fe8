package diagram

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/geometry"
	"github.com/agerpk/estructural/internal/loads"
	"github.com/agerpk/estructural/internal/mechanics"
)

func support() *geometry.Result {
	return &geometry.Result{
		Nodes: []geometry.Node{
			{Name: "BASE", Kind: geometry.KindBase},
			{Name: "CROSS_H1", Z: 15, Kind: geometry.KindCross},
			{Name: "C1_L", X: -2, Z: 15, Kind: geometry.KindConductor},
			{Name: "C1_R", X: 2, Z: 15, Kind: geometry.KindConductor},
			{Name: "TOP", Z: 18, Kind: geometry.KindGeneral},
			{Name: "HG1", Z: 18, Kind: geometry.KindGuard},
		},
		Connections: []geometry.Connection{
			{From: "BASE", To: "CROSS_H1", Kind: geometry.ConnColumn},
			{From: "CROSS_H1", To: "C1_L", Kind: geometry.ConnArm},
			{From: "CROSS_H1", To: "C1_R", Kind: geometry.ConnArm},
			{From: "CROSS_H1", To: "TOP", Kind: geometry.ConnColumn},
		},
	}
}

func nodeLoads() *loads.Result {
	l := &loads.Result{Hypotheses: []string{"A0", "A2"}}
	c1 := &loads.NodeLoads{Node: "C1_L"}
	c1.Add(loads.LoadWeight, "A0", loads.Force(0, 0, 300))
	c1.Add(loads.LoadWeight, "A2", loads.Force(0, 0, 300))
	c1.Add(loads.LoadWind, "A2", loads.Force(450, 0, 0))
	hg := &loads.NodeLoads{Node: "HG1", Rotation: [3]float64{0, 0, 90}}
	hg.Add(loads.LoadPull, "A2", loads.Force(100, 0, 0))
	l.Nodes = []*loads.NodeLoads{c1, hg}
	l.Reactions = []loads.Reaction{
		{Code: "A0", Fz: 900},
		{Code: "A2", Fx: 550, Fy: 20, Fz: 900, Tres: math.Hypot(550, 20)},
	}
	return l
}

func TestBuildTrees(t *testing.T) {
	trees, err := BuildTrees(support(), nodeLoads(), aea.DefaultCatalogue())
	require.NoError(t, err)
	require.Len(t, trees, 2)

	a2 := trees[1]
	assert.Equal(t, "A2", a2.Hypothesis)
	assert.NotEmpty(t, a2.Description)
	require.Len(t, a2.Nodes, 6)
	assert.Equal(t, 450.0, a2.Nodes[2].Load[0])
	assert.Equal(t, 300.0, a2.Nodes[2].Load[2])
	// the guard pull is rotated into the longitudinal axis
	assert.InDelta(t, 0, a2.Nodes[5].Load[0], 1e-9)
	assert.InDelta(t, 100, a2.Nodes[5].Load[1], 1e-9)
	assert.InDelta(t, math.Hypot(450, 300), a2.MaxForce, 1e-9)

	_, err = BuildTrees(nil, nodeLoads(), nil)
	assert.Error(t, err)
}

func TestExportTrees(t *testing.T) {
	trees, err := BuildTrees(support(), nodeLoads(), aea.DefaultCatalogue())
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, ExportTrees(trees, dir, "S1"))
	for _, tr := range trees {
		assert.Equal(t, "S1.arbol_"+tr.Hypothesis+".png", tr.File)
		info, err := os.Stat(filepath.Join(dir, tr.File))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestExportCharts(t *testing.T) {
	dir := t.TempDir()
	l := nodeLoads()
	require.NoError(t, ExportSilhouette(support(), filepath.Join(dir, "s.png")))
	require.NoError(t, ExportReactionPolar(l.Reactions, filepath.Join(dir, "polar.svg")))
	require.NoError(t, ExportReactionBars(l.Reactions, filepath.Join(dir, "bars")))
	for _, f := range []string{"s.png", "polar.svg", "bars.png"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}
	assert.Error(t, ExportReactionBars(nil, filepath.Join(dir, "none.png")))
}

func TestSagChart(t *testing.T) {
	r := mechanics.Result{
		CableID: "AlAc_300_50",
		States: []mechanics.StateResult{
			{State: "I", Sag: 4.1},
			{State: "II", Sag: 5.3},
			{State: "III", Sag: math.NaN()},
		},
	}
	out := SagChart(r)
	assert.Contains(t, out, "AlAc_300_50")
	assert.Contains(t, out, "I II III")
	assert.Empty(t, SagChart(mechanics.Result{}))
}

func TestTraceChart(t *testing.T) {
	out := TraceChart([]float64{0.8, 1.1, 1.4, 1.6}, 1.5)
	assert.Contains(t, out, "1.50")
	assert.Empty(t, TraceChart(nil, 1.5))
	assert.NotEmpty(t, TraceChart([]float64{999}, 1.5))
}

func TestTreeTableAndSummary(t *testing.T) {
	trees, err := BuildTrees(support(), nodeLoads(), aea.DefaultCatalogue())
	require.NoError(t, err)
	table := TreeTable(trees[1])
	assert.Contains(t, table, "C1_L")
	assert.NotContains(t, table, "BASE")

	box := DrawSummaryBox("SPH", []string{"Monoposte 18.0/1400", "Rt = 588 daN·m"})
	lines := strings.Split(strings.TrimRight(box, "\n"), "\n")
	require.Len(t, lines, 6)
	width := len([]rune(lines[0]))
	for _, l := range lines {
		assert.Len(t, []rune(l), width)
	}
}
