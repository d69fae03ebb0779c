// mergebench evaluates the output of automated merge tools against known
// good resolutions and gates new results against previous runs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mergebench/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "mergebench",
	Short: "Evaluate and compare automated merge tool results",
	Long: "Mergebench measures how far merge tool output deviates from the known\n" +
		"good resolution of each merge scenario, checks compiled artifacts for\n" +
		"behavioral equivalence, and decides whether a new batch of results\n" +
		"regressed against a reference run.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(*cobra.Command, []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(classcompareCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
