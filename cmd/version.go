package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agerpk/estructural/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of estructural",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, version.String())
		fmt.Fprintln(out, "Overhead line support design")
		fmt.Fprintf(out, "Based on %s (Asociación Electrotécnica Argentina)\n", version.Standard)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
