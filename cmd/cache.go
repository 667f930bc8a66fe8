package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agerpk/estructural/internal/cache"
	"github.com/agerpk/estructural/internal/pipeline"
)

var purge bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Show which cached results are current",
	Long: `List every calculation of the structure with the state of its cache
entry: fresh (matches the current configuration), stale or missing.

With --limpiar the entries of the structure are removed.`,
	Args: cobra.NoArgs,
	RunE: runCache,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.Flags().BoolVar(&purge, "limpiar", false, "Remove the cache entries of the structure")
}

func runCache(cmd *cobra.Command, args []string) error {
	ctx, logger, err := loadContext()
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		return err
	}
	name := ctx.Config.Name

	if purge {
		for _, k := range cache.Kinds {
			if err := ctx.Store.Remove(name, k); err != nil {
				return err
			}
		}
	}

	runner, err := pipeline.NewRunner(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	header(out, "CACHE "+name)
	w := table(out)
	for _, k := range cache.Kinds {
		state := check + " fresh"
		e, err := ctx.Store.Fresh(name, k, runner.Hash())
		switch {
		case errors.Is(err, cache.ErrNoEntry):
			state = "- missing"
		case errors.Is(err, cache.ErrStale):
			state = warn + " stale"
		case err != nil:
			return err
		}
		when := ""
		if e != nil {
			when = e.Date.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", k, state, when)
	}
	w.Flush()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  hash %s\n  %s\n\n", runner.Hash(), ctx.Store.Dir())
	return nil
}
