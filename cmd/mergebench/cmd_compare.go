package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mergebench/internal/evaluation"
	"mergebench/internal/logging"
	"mergebench/internal/report"
	"mergebench/internal/store"
)

var compareFlags struct {
	results    string
	against    string
	output     string
	toolsCfg   string
	baseDir    string
	workers    int
	skipFailed bool
	dbPath     string
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Evaluate merge results and gate them against a reference run",
	Long: `Compare evaluates a results manifest, logs the per-scenario diff against
a reference run, and exits 0 only if the new results are at least as good.
The reference is either an evaluation CSV or a stored run ("run:<label>").`,
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.StringVar(&compareFlags.results, "results", "", "Path to the merge results manifest (YAML or JSON)")
	f.StringVar(&compareFlags.against, "against", "", "Reference: evaluation CSV path or run:<label|id>")
	f.StringVarP(&compareFlags.output, "output", "o", "results.csv", "Output CSV path for the new evaluations")
	f.StringVar(&compareFlags.toolsCfg, "tools", "", "Path to the external tools config (default: built-in)")
	f.StringVar(&compareFlags.baseDir, "base-dir", "", "Base directory merge dirs are reported relative to")
	f.IntVar(&compareFlags.workers, "workers", 1, "Number of parallel evaluation workers")
	f.BoolVar(&compareFlags.skipFailed, "skip-failed", false, "Skip scenarios whose evaluation fails instead of aborting the batch")
	f.StringVar(&compareFlags.dbPath, "db", defaultDBPath, "Run database path")
	_ = compareCmd.MarkFlagRequired("results")
	_ = compareCmd.MarkFlagRequired("against")
}

func runCompare(cmd *cobra.Command, _ []string) error {
	log := logging.New("compare")

	reference, err := loadReference(compareFlags.against, compareFlags.dbPath)
	if err != nil {
		return err
	}

	_, evals, err := evaluateManifest(cmd.Context(), manifestOptions{
		results:    compareFlags.results,
		toolsCfg:   compareFlags.toolsCfg,
		baseDir:    compareFlags.baseDir,
		workers:    compareFlags.workers,
		skipFailed: compareFlags.skipFailed,
	})
	if err != nil {
		return err
	}

	candidate := evaluation.NewSet(evals)
	candidate.LogDiffs(reference)

	if err := report.WriteEvaluations(compareFlags.output, evals); err != nil {
		return err
	}
	log.Info("evaluations written", "path", compareFlags.output, "records", len(evals))

	if !candidate.AtLeastAsGoodAs(reference) {
		log.Warn("new results were worse than the reference")
		os.Exit(1)
	}
	log.Info("new results were no worse than the reference")
	return nil
}

// loadReference resolves the --against flag: "run:<ref>" reads from the
// run database, anything else is an evaluation CSV path.
func loadReference(against, dbPath string) (*evaluation.EvaluationSet, error) {
	if ref, ok := strings.CutPrefix(against, "run:"); ok {
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.LoadRun(ref)
	}

	evals, err := report.ReadEvaluations(against)
	if err != nil {
		return nil, fmt.Errorf("load reference: %w", err)
	}
	return evaluation.NewSet(evals), nil
}
