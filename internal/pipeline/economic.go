package pipeline

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agerpk/estructural/internal/cache"
	"github.com/agerpk/estructural/internal/costing"
)

// SpanCost is the costed structure for one candidate span
type SpanCost struct {
	Span      float64         `json:"L_vano"`
	Structure string          `json:"estructura"`
	PerKm     decimal.Decimal `json:"costo_km"`
	Cost      *costing.Result `json:"costeo"`
	Err       string          `json:"error,omitempty"`
}

// SpanSweep ranks the candidate spans by cost per km
type SpanSweep struct {
	Spans    []SpanCost `json:"vanos"`
	Cheapest *SpanCost  `json:"vano_economico"`
}

func spanLabel(span float64) string {
	return strconv.FormatFloat(span, 'f', -1, 64)
}

// EconomicSpan runs the full chain once per span on a copy of the
// configuration named <name>_L<span>. Spans whose chain fails are kept in the
// sweep with their error and left out of the ranking.
func EconomicSpan(ctx CalculationContext, spans []float64) (*SpanSweep, error) {
	if ctx.Config == nil {
		return nil, fmt.Errorf("calculation context has no configuration")
	}
	if len(spans) == 0 {
		return nil, fmt.Errorf("no spans to compare")
	}
	logger := ctx.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sweep := &SpanSweep{}
	for _, span := range spans {
		if span <= 0 {
			return nil, fmt.Errorf("span must be positive, got %g", span)
		}
		cfg := ctx.Config.Clone()
		cfg.Span = span
		cfg.Name = fmt.Sprintf("%s_L%s", ctx.Config.Name, spanLabel(span))

		sub := ctx
		sub.Config = &cfg
		row := SpanCost{Span: span, Structure: cfg.Name}

		runner, err := NewRunner(sub)
		if err == nil {
			var res *Results
			res, err = runner.Run(cache.KindCosteo)
			if err == nil {
				row.Cost = res.Costeo
				row.PerKm = res.Costeo.PerKm
			}
		}
		if err != nil {
			row.Err = err.Error()
			logger.Warn("span discarded", zap.Float64("vano", span), zap.Error(err))
		}
		sweep.Spans = append(sweep.Spans, row)
	}

	sort.SliceStable(sweep.Spans, func(i, j int) bool {
		a, b := sweep.Spans[i], sweep.Spans[j]
		if (a.Err == "") != (b.Err == "") {
			return a.Err == ""
		}
		return a.PerKm.LessThan(b.PerKm)
	})
	if first := sweep.Spans[0]; first.Err == "" {
		sweep.Cheapest = &sweep.Spans[0]
		logger.Info("economic span",
			zap.Float64("vano", first.Span),
			zap.String("costo_km", first.PerKm.StringFixed(2)))
	} else {
		return sweep, fmt.Errorf("no span could be costed: %s", first.Err)
	}
	return sweep, nil
}
