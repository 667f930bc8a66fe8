package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agerpk/estructural/internal/pipeline"
)

var spans []float64

var vanoCmd = &cobra.Command{
	Use:   "vano",
	Short: "Find the economic span",
	Long: `Cost the structure for each candidate span and rank the spans by
cost per km of line. Every span runs the full chain on a copy of the
configuration named <name>_L<span>, cached separately.

Examples:
  estructural vano --config S132.json --vanos 200,250,300,350`,
	Args: cobra.NoArgs,
	RunE: runVano,
}

func init() {
	rootCmd.AddCommand(vanoCmd)
	vanoCmd.Flags().Float64SliceVar(&spans, "vanos", nil, "Candidate spans (m) [required]")
	vanoCmd.MarkFlagRequired("vanos")
}

func runVano(cmd *cobra.Command, args []string) error {
	ctx, logger, err := loadContext()
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		return err
	}
	sweep, err := pipeline.EconomicSpan(ctx, spans)
	if err != nil {
		return err
	}
	printSweep(cmd.OutOrStdout(), sweep)

	if xlsxPath != "" {
		if err := exportWorkbook(nil, sweep); err != nil {
			return err
		}
		logger.Info("workbook written", zap.String("archivo", xlsxPath))
	}
	return nil
}
