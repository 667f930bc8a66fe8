package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/agerpk/estructural/internal/mechanics"
	"github.com/agerpk/estructural/internal/pipeline"
)

const defaultSheet = "Sheet1"

// Workbook renders the calculation results into an xlsx file, one sheet per
// calculation present
type Workbook struct {
	f      *excelize.File
	header int
	sheets []string
}

// New returns an empty workbook
func New() (*Workbook, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, err
	}
	return &Workbook{f: f, header: header}, nil
}

// Sheets lists the sheets written so far
func (w *Workbook) Sheets() []string {
	return w.sheets
}

// table writes a header row and data rows to a new sheet
func (w *Workbook) table(name string, header []any, rows [][]any) error {
	if _, err := w.f.NewSheet(name); err != nil {
		return err
	}
	if err := w.f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	if err := w.f.SetRowStyle(name, 1, 1, w.header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := w.f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := w.f.SetColWidth(name, "A", last, 14); err != nil {
		return err
	}
	w.sheets = append(w.sheets, name)
	return nil
}

// cell keeps NaN and infinities out of the sheet
func cell(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}

func cmcRows(r mechanics.Result) [][]any {
	var rows [][]any
	for _, s := range r.States {
		rows = append(rows, []any{
			r.CableID, s.State, cell(s.Stress), cell(s.Tension), cell(s.Sag),
			cell(s.ResultantSag), cell(s.UnitLoad), cell(s.PercentUltimate), cell(s.SwingAngle),
		})
	}
	return rows
}

// Add writes every calculation present in res
func (w *Workbook) Add(res *pipeline.Results) error {
	if res.CMC != nil {
		rows := cmcRows(res.CMC.Conductor)
		for _, g := range res.CMC.Guards {
			rows = append(rows, cmcRows(g)...)
		}
		if err := w.table("CMC", []any{"cable", "estado", "tension daN/mm2", "tiro daN", "flecha m", "flecha resultante m", "carga daN/m", "% rotura", "oscilacion deg"}, rows); err != nil {
			return err
		}
	}
	if res.DGE != nil {
		var rows [][]any
		for _, n := range res.DGE.Nodes {
			rows = append(rows, []any{n.Name, string(n.Kind), n.X, n.Y, n.Z, n.CableID})
		}
		if err := w.table("DGE", []any{"nodo", "tipo", "x", "y", "z", "cable"}, rows); err != nil {
			return err
		}
	}
	if res.DME != nil {
		var rows [][]any
		for _, r := range res.DME.Reactions {
			rows = append(rows, []any{r.Code, r.Fx, r.Fy, r.Fz, r.Mx, r.My, r.Mz, r.Tres, r.Angle})
		}
		if err := w.table("DME", []any{"hipotesis", "Fx daN", "Fy daN", "Fz daN", "Mx daN.m", "My daN.m", "Mz daN.m", "Tres daN", "angulo deg"}, rows); err != nil {
			return err
		}
	}
	if res.SPH != nil {
		var rows [][]any
		for _, c := range res.SPH.Candidates {
			adopted := ""
			if c.Configuration == res.SPH.Adopted.Configuration {
				adopted = "si"
			}
			rows = append(rows, []any{string(c.Configuration), c.Poles, c.Governing, c.FELU, c.RcLRFD, c.RcService, c.RcTransport, c.RcAdopted, c.Installed, adopted})
		}
		if err := w.table("SPH", []any{"configuracion", "postes", "hipotesis", "F_elu daN", "Rc lrfd", "Rc servicio", "Rc transporte", "Rc adoptada", "instalada", "adoptada"}, rows); err != nil {
			return err
		}
	}
	if res.FUND != nil {
		var rows [][]any
		for _, c := range res.FUND.Cases {
			rows = append(rows, []any{c.Input.Hypothesis, c.Input.Tx, c.Input.Ty, c.T, c.A, c.B, c.Volume,
				c.Transverse.FS, c.Longitudinal.FS, cell(c.SigmaMax), c.Iterations, c.Converged})
		}
		if err := w.table("FUND", []any{"hipotesis", "Tx kgf", "Ty kgf", "t m", "a m", "b m", "volumen m3", "FS transv", "FS long", "sigma kg/m2", "iteraciones", "convergio"}, rows); err != nil {
			return err
		}
	}
	if res.Costeo != nil {
		var rows [][]any
		for _, it := range res.Costeo.Items {
			rows = append(rows, []any{it.Concept, it.Unit, it.Quantity.InexactFloat64(), it.UnitPrice.InexactFloat64(), it.Amount.InexactFloat64()})
		}
		rows = append(rows,
			[]any{"total estructura", res.Costeo.Currency, "", "", res.Costeo.PerStructure.InexactFloat64()},
			[]any{"total km", res.Costeo.Currency, "", "", res.Costeo.PerKm.InexactFloat64()})
		if err := w.table("COSTEO", []any{"concepto", "unidad", "cantidad", "precio unitario", "importe"}, rows); err != nil {
			return err
		}
	}
	return nil
}

// AddSpanSweep writes the economic span ranking
func (w *Workbook) AddSpanSweep(s *pipeline.SpanSweep) error {
	var rows [][]any
	for _, sp := range s.Spans {
		perKm := any("")
		if sp.Err == "" {
			perKm = sp.PerKm.InexactFloat64()
		}
		rows = append(rows, []any{sp.Span, sp.Structure, perKm, sp.Err})
	}
	return w.table("VANO", []any{"vano m", "estructura", "costo km", "error"}, rows)
}

// Save writes the workbook to path
func (w *Workbook) Save(path string) error {
	if len(w.sheets) == 0 {
		return fmt.Errorf("no results to export")
	}
	if err := w.f.DeleteSheet(defaultSheet); err != nil {
		return err
	}
	idx, err := w.f.GetSheetIndex(w.sheets[0])
	if err != nil {
		return err
	}
	w.f.SetActiveSheet(idx)
	if err := w.f.SaveAs(path); err != nil {
		return err
	}
	return w.f.Close()
}
