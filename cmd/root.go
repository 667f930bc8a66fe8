package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/cable"
	"github.com/agerpk/estructural/internal/cache"
	"github.com/agerpk/estructural/internal/config"
	"github.com/agerpk/estructural/internal/logging"
	"github.com/agerpk/estructural/internal/pipeline"
	"github.com/agerpk/estructural/internal/version"
)

var (
	configPath     string
	cablesPath     string
	cacheDir       string
	hypothesesPath string
	xlsxPath       string
	outputDir      string
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:   "estructural",
	Short: "Transmission-line support design per AEA 95301",
	Long: `estructural - overhead line support design

Runs the AEA 95301 calculation chain for one support:
  - CMC      cable sag-tension (change of state)
  - DGE      support geometry and clearances
  - DME      load hypotheses and base reactions
  - ARBOLES  load-tree diagrams
  - SPH      concrete pole selection
  - FUND     Sulzberger foundation
  - COSTEO   structure cost and cost per km

Every result is cached per structure; a calculation reruns whatever it
depends on when the configuration changed.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println()
		fmt.Println("  ╔═══════════════════════════════════════════════════════════╗")
		fmt.Println("  ║                                                           ║")
		fmt.Printf("  ║   estructural v%-43s║\n", version.Version)
		fmt.Println("  ║   Overhead line support design (AEA 95301)                ║")
		fmt.Println("  ║                                                           ║")
		fmt.Println("  ╚═══════════════════════════════════════════════════════════╝")
		fmt.Println()
		fmt.Println("  Use 'estructural --help' to see available commands.")
		fmt.Println()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "estructura.json", "Structure configuration (JSON)")
	pf.StringVar(&cablesPath, "cables", "", "Cable catalogue (JSON) [default $ESTRUCTURAL_CABLES]")
	pf.StringVar(&cacheDir, "cache", "", "Cache directory [default $ESTRUCTURAL_CACHE_DIR]")
	pf.StringVar(&hypothesesPath, "hipotesis", "", "Hypothesis catalogue (JSON), AEA defaults when empty")
	pf.StringVar(&xlsxPath, "xlsx", "", "Export results to an xlsx workbook")
	pf.StringVar(&outputDir, "out", "", "Image output directory [default $ESTRUCTURAL_OUTPUT_DIR]")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error [default $ESTRUCTURAL_LOG_LEVEL]")
}

func pick(flag, env string) string {
	if flag != "" {
		return flag
	}
	return env
}

// loadContext reads settings, configuration and catalogues. Flags win over
// environment settings.
func loadContext() (pipeline.CalculationContext, *zap.Logger, error) {
	var ctx pipeline.CalculationContext
	settings, err := config.LoadSettings()
	if err != nil {
		return ctx, nil, err
	}
	logger, err := logging.New(pick(logLevel, settings.LogLevel))
	if err != nil {
		return ctx, nil, err
	}

	cfg, err := config.LoadStructure(configPath)
	if err != nil {
		return ctx, logger, err
	}
	cat, err := cable.LoadCatalogue(pick(cablesPath, settings.CataloguePath))
	if err != nil {
		return ctx, logger, fmt.Errorf("cable catalogue: %w", err)
	}
	var hyps aea.Catalogue
	if hypothesesPath != "" {
		if hyps, err = aea.LoadCatalogue(hypothesesPath); err != nil {
			return ctx, logger, err
		}
	}
	store, err := cache.NewStore(pick(cacheDir, settings.CacheDir))
	if err != nil {
		return ctx, logger, err
	}

	ctx = pipeline.CalculationContext{
		Config:     cfg,
		Catalogue:  cat,
		Hypotheses: hyps,
		Store:      store,
		Logger:     logger,
		OutputDir:  pick(outputDir, settings.OutputDir),
	}
	return ctx, logger, nil
}
