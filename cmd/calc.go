package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agerpk/estructural/internal/cache"
	"github.com/agerpk/estructural/internal/pipeline"
	"github.com/agerpk/estructural/internal/report"
)

type calcSpec struct {
	kind  cache.Kind
	short string
	long  string
}

var calcs = []calcSpec{
	{cache.KindCMC, "Cable sag-tension for every climatic state",
		`Solve the change-of-state equation for the conductor and guard wires and
search the optimum tension for the configured objective (minimum sag or
minimum tension) within the per-state ceilings.`},
	{cache.KindDGE, "Support geometry, clearances and shielding",
		`Size cross-arms and heights from the AEA 95301 electrical distances and
the maximum conductor sag, then verify clearance zones and the guard
shielding angle. Reruns CMC when its cache entry is stale.`},
	{cache.KindDME, "Load hypotheses and base reactions",
		`Apply every load hypothesis of the structure type to the support nodes
and reduce the node loads to base reactions. Reruns CMC and DGE as needed.`},
	{cache.KindArboles, "Load-tree diagrams per hypothesis",
		`Build one load tree per hypothesis from DGE and DME and, when an output
directory is set, export them as PNG together with the silhouette and
reaction charts.`},
	{cache.KindSPH, "Concrete pole selection (IRAM 1605)",
		`Allocate the commercial pole length and pick the cheapest pole
configuration (mono, bipole or tripole) for the governing reactions.`},
	{cache.KindFUND, "Sulzberger monobloc foundation",
		`Size a Sulzberger monobloc footing per hypothesis and adopt the largest.`},
	{cache.KindCosteo, "Structure cost and cost per km",
		`Price the pole, foundation, arms, insulator chains and guard fittings
and spread the structure cost over a kilometre of line.`},
}

func newCalcCmd(c calcSpec) *cobra.Command {
	return &cobra.Command{
		Use:   strings.ToLower(string(c.kind)),
		Short: c.short,
		Long:  c.long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, c.kind)
		},
	}
}

func runCalc(cmd *cobra.Command, kinds ...cache.Kind) error {
	ctx, logger, err := loadContext()
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		return err
	}
	runner, err := pipeline.NewRunner(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var res *pipeline.Results
	for _, k := range kinds {
		if res, err = runner.Run(k); err != nil {
			return err
		}
		printResults(out, k, res, ctx.Config)
	}

	if xlsxPath != "" {
		if err := exportWorkbook(res, nil); err != nil {
			return err
		}
		logger.Info("workbook written", zap.String("archivo", xlsxPath))
	}
	return nil
}

func exportWorkbook(res *pipeline.Results, sweep *pipeline.SpanSweep) error {
	w, err := report.New()
	if err != nil {
		return err
	}
	if res != nil {
		if err := w.Add(res); err != nil {
			return err
		}
	}
	if sweep != nil {
		if err := w.AddSpanSweep(sweep); err != nil {
			return err
		}
	}
	if err := w.Save(xlsxPath); err != nil {
		return fmt.Errorf("export %s: %w", xlsxPath, err)
	}
	return nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole calculation chain",
	Long: `Run every calculation of the structure: the costing chain
(CMC, DGE, DME, SPH, FUND, COSTEO) followed by the load trees.

Examples:
  estructural run --config S132.json --cables cables.json --out salida --xlsx S132.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCalc(cmd, cache.KindCosteo, cache.KindArboles)
	},
}

func init() {
	for _, c := range calcs {
		rootCmd.AddCommand(newCalcCmd(c))
	}
	rootCmd.AddCommand(runCmd)
}
