package report

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agerpk/estructural/internal/costing"
	"github.com/agerpk/estructural/internal/loads"
	"github.com/agerpk/estructural/internal/mechanics"
	"github.com/agerpk/estructural/internal/pipeline"
	"github.com/agerpk/estructural/internal/pole"
)

func results() *pipeline.Results {
	return &pipeline.Results{
		CMC: &mechanics.LineResult{
			Conductor: mechanics.Result{CableID: "AAAC_120", States: []mechanics.StateResult{
				{State: "I", Tension: 900, Sag: 3.2},
				{State: "II", Tension: math.NaN(), Sag: math.NaN()},
			}},
		},
		DME: &loads.Result{Reactions: []loads.Reaction{
			{Code: "A0", Fz: 900},
			{Code: "A2", Fx: 550, Fz: 900, My: 8000, Tres: 550},
		}},
		SPH: &pole.Result{
			Candidates: []pole.Candidate{
				{Configuration: pole.Monopole, Poles: 1, RcAdopted: 1400, Installed: 1400},
				{Configuration: pole.BipoleTransverse, Poles: 2, RcAdopted: 1100, Installed: 2200},
			},
			Adopted: pole.Candidate{Configuration: pole.Monopole, Poles: 1, RcAdopted: 1400},
		},
		Costeo: &costing.Result{
			Items: []costing.Item{{
				Concept: "excavacion", Unit: "m3",
				Quantity: decimal.RequireFromString("4.5"), UnitPrice: decimal.NewFromInt(35),
				Amount: decimal.RequireFromString("157.50"),
			}},
			PerStructure: decimal.RequireFromString("157.50"),
			PerKm:        decimal.RequireFromString("525.00"),
			Currency:     "USD",
		},
	}
}

func TestWorkbook(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.Add(results()))
	assert.Equal(t, []string{"CMC", "DME", "SPH", "COSTEO"}, w.Sheets())

	path := filepath.Join(t.TempDir(), "S1.xlsx")
	require.NoError(t, w.Save(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"CMC", "DME", "SPH", "COSTEO"}, f.GetSheetList())

	rows, err := f.GetRows("DME")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "hipotesis", rows[0][0])
	assert.Equal(t, "A2", rows[2][0])
	assert.Equal(t, "550", rows[2][1])

	rows, err = f.GetRows("CMC")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "", rows[2][3], "NaN tension is left blank")

	rows, err = f.GetRows("SPH")
	require.NoError(t, err)
	assert.Equal(t, "si", rows[1][9])

	rows, err = f.GetRows("COSTEO")
	require.NoError(t, err)
	assert.Equal(t, "total km", rows[3][0])
	assert.Equal(t, "525", rows[3][4])
}

func TestSpanSweepSheet(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.AddSpanSweep(&pipeline.SpanSweep{Spans: []pipeline.SpanCost{
		{Span: 150, Structure: "S1_L150", PerKm: decimal.NewFromInt(9000)},
		{Span: 400, Structure: "S1_L400", Err: "FUND: no converge"},
	}}))
	path := filepath.Join(t.TempDir(), "vanos.xlsx")
	require.NoError(t, w.Save(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("VANO")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "9000", rows[1][2])
	assert.Equal(t, "FUND: no converge", rows[2][3])
}

func TestSaveEmpty(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	assert.Error(t, w.Save(filepath.Join(t.TempDir(), "empty.xlsx")))
}
