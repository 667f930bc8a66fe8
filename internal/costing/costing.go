package costing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/config"
	"github.com/agerpk/estructural/internal/foundation"
	"github.com/agerpk/estructural/internal/geometry"
	"github.com/agerpk/estructural/internal/pole"
)

// Input gathers the upstream results a structure is priced from
type Input struct {
	Config     *config.StructureConfig
	Geometry   *geometry.Result
	Pole       *pole.Result
	Foundation *foundation.Design
}

// Item is one priced line
type Item struct {
	Concept   string          `json:"concepto"`
	Unit      string          `json:"unidad"`
	Quantity  decimal.Decimal `json:"cantidad"`
	UnitPrice decimal.Decimal `json:"precio_unitario"`
	Amount    decimal.Decimal `json:"importe"`
}

// Result is the cost of one structure and of the line it repeats along
type Result struct {
	Items        []Item          `json:"items"`
	PerStructure decimal.Decimal `json:"costo_estructura"`
	PerKm        decimal.Decimal `json:"costo_km"`
	StructuresKm decimal.Decimal `json:"estructuras_km"`
	Currency     string          `json:"moneda"`
}

var thousand = decimal.NewFromInt(1000)

func quantity(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}

func item(concept, unit string, qty, price decimal.Decimal) Item {
	return Item{
		Concept:   concept,
		Unit:      unit,
		Quantity:  qty,
		UnitPrice: price,
		Amount:    qty.Mul(price).Round(2),
	}
}

// ArmLength sums the length of every cross-arm and crossbar member
func ArmLength(g *geometry.Result) float64 {
	var total float64
	for _, c := range g.Connections {
		if c.Kind != geometry.ConnArm && c.Kind != geometry.ConnCrossbar {
			continue
		}
		a, okA := g.Node(c.From)
		b, okB := g.Node(c.To)
		if !okA || !okB {
			continue
		}
		total += math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y) + (a.Z-b.Z)*(a.Z-b.Z))
	}
	return total
}

// chainsPerPhase is one suspension chain, or a pair of tension chains where
// the conductor is dead-ended on both sides
func chainsPerPhase(t aea.StructureType) int {
	switch t {
	case aea.StructureRetention, aea.StructureTerminal, aea.StructureSpecial:
		return 2
	}
	return 1
}

func (in Input) validate() error {
	switch {
	case in.Config == nil:
		return fmt.Errorf("costing needs a structure configuration")
	case in.Geometry == nil:
		return fmt.Errorf("costing needs the DGE result")
	case in.Pole == nil:
		return fmt.Errorf("costing needs the SPH result")
	case in.Foundation == nil:
		return fmt.Errorf("costing needs the FUND result")
	case in.Config.Span <= 0:
		return fmt.Errorf("span must be positive, got %.2f", in.Config.Span)
	}
	return nil
}

// Compute prices one structure and scales it to a kilometre of line
func Compute(in Input, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	k := in.Config.Costs
	res := &Result{Currency: k.Currency}

	poles := decimal.NewFromInt(int64(in.Pole.Adopted.Poles))
	if p := in.Pole.Pole; !p.Price.IsZero() {
		res.Items = append(res.Items, item(
			fmt.Sprintf("poste %.1f/%.0f", p.Length, p.Strength), "u", poles, p.Price))
	} else {
		weight := quantity(in.Pole.Pole.Weight, 0).Mul(poles)
		res.Items = append(res.Items, item(
			fmt.Sprintf("poste %.1f/%.0f", p.Length, p.Strength), "kg", weight, k.PolePerKg))
	}

	f := in.Foundation.Adopted
	res.Items = append(res.Items,
		item("hormigon fundacion", "m3", quantity(f.Volume, 3), k.ConcreteM3),
		item("excavacion", "m3", quantity(f.A*f.B*f.T, 3), k.ExcavationM3),
	)

	if l := ArmLength(in.Geometry); l > 0 {
		res.Items = append(res.Items, item("mensulas y crucetas", "m", quantity(l, 2), k.CrossArmPerM))
	}
	conductors := len(in.Geometry.NodesOfKind(geometry.KindConductor))
	chains := decimal.NewFromInt(int64(conductors * chainsPerPhase(in.Config.Type)))
	if chains.IsPositive() {
		res.Items = append(res.Items, item("cadenas de aisladores", "u", chains, k.InsulatorChain))
	}
	if guards := len(in.Geometry.NodesOfKind(geometry.KindGuard)); guards > 0 {
		res.Items = append(res.Items, item("morseteria cable de guardia", "u", decimal.NewFromInt(int64(guards)), k.GuardFitting))
	}

	for _, it := range res.Items {
		res.PerStructure = res.PerStructure.Add(it.Amount)
	}
	span := decimal.NewFromFloat(in.Config.Span)
	res.StructuresKm = thousand.Div(span).Round(3)
	res.PerKm = res.PerStructure.Mul(thousand).Div(span).Round(2)

	logger.Info("structure costed",
		zap.String("estructura", in.Config.Name),
		zap.String("costo_estructura", res.PerStructure.StringFixed(2)),
		zap.String("costo_km", res.PerKm.StringFixed(2)),
		zap.String("moneda", res.Currency))
	return res, nil
}
