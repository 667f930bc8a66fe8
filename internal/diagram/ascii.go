package diagram

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/agerpk/estructural/internal/mechanics"
)

// SagChart plots the vertical sag of every climatic state of a cable, in
// state order. Unconverged states are drawn at zero.
func SagChart(r mechanics.Result) string {
	if len(r.States) == 0 {
		return ""
	}
	sags := make([]float64, len(r.States))
	names := make([]string, len(r.States))
	for i, s := range r.States {
		if !math.IsNaN(s.Sag) {
			sags[i] = s.Sag
		}
		names[i] = s.State
	}
	// asciigraph needs at least two samples to draw a line
	if len(sags) == 1 {
		sags = append(sags, sags[0])
	}
	return asciigraph.Plot(sags,
		asciigraph.Height(10),
		asciigraph.Width(len(sags)*8),
		asciigraph.Precision(2),
		asciigraph.Caption(fmt.Sprintf("flecha %s (m) por estado: %s", r.CableID, strings.Join(names, " "))))
}

// TraceChart plots the minimum overturning safety factor per iteration of the
// footing search
func TraceChart(trace []float64, required float64) string {
	if len(trace) == 0 {
		return ""
	}
	data := make([]float64, len(trace))
	for i, v := range trace {
		data[i] = math.Min(v, 10)
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}
	width := len(data)
	if width > 72 {
		width = 72
	}
	return asciigraph.PlotMany([][]float64{data, constant(required, len(data))},
		asciigraph.Height(10),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(asciigraph.Default, asciigraph.Red),
		asciigraph.Caption(fmt.Sprintf("FS minimo por iteracion (requerido %.2f)", required)))
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// TreeTable lists the global loads of a tree node by node
func TreeTable(t Tree) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n  %s  %s\n", t.Hypothesis, t.Description))
	sb.WriteString(fmt.Sprintf("  %-10s %10s %10s %10s\n", "nodo", "Fx", "Fy", "Fz"))
	sb.WriteString("  " + strings.Repeat("─", 43) + "\n")
	for _, n := range t.Nodes {
		if n.Load == ([6]float64{}) {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-10s %10.1f %10.1f %10.1f\n", n.Name, n.Load[0], n.Load[1], n.Load[2]))
	}
	return sb.String()
}

// DrawSummaryBox creates a summary box for results
func DrawSummaryBox(title string, lines []string) string {
	var sb strings.Builder

	maxLen := len([]rune(title))
	for _, line := range lines {
		if n := len([]rune(line)); n > maxLen {
			maxLen = n
		}
	}
	maxLen += 4

	border := strings.Repeat("═", maxLen)
	sb.WriteString(fmt.Sprintf("  ╔%s╗\n", border))
	sb.WriteString(fmt.Sprintf("  ║  %s  ║\n", pad(title, maxLen-4)))
	sb.WriteString(fmt.Sprintf("  ╠%s╣\n", border))
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("  ║  %s  ║\n", pad(line, maxLen-4)))
	}
	sb.WriteString(fmt.Sprintf("  ╚%s╝\n", border))

	return sb.String()
}

// pad right-fills s to n runes
func pad(s string, n int) string {
	if k := len([]rune(s)); k < n {
		return s + strings.Repeat(" ", n-k)
	}
	return s
}
