package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mergebench/internal/evaluation"
	"mergebench/internal/logging"
	"mergebench/internal/report"
	"mergebench/internal/store"
)

const defaultDBPath = ".mergebench/runs.db"

var evaluateFlags struct {
	results    string
	output     string
	toolsCfg   string
	baseDir    string
	workers    int
	skipFailed bool
	metainfo   bool
	saveRun    string
	dbPath     string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate merge results and write the evaluation CSV",
	Long: `Evaluate reads a results manifest describing completed merge attempts,
measures how far each successful merge deviates from the expected
resolution, and writes one evaluation record per attempt.`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.results, "results", "", "Path to the merge results manifest (YAML or JSON)")
	f.StringVarP(&evaluateFlags.output, "output", "o", "results.csv", "Output CSV path")
	f.StringVar(&evaluateFlags.toolsCfg, "tools", "", "Path to the external tools config (default: built-in)")
	f.StringVar(&evaluateFlags.baseDir, "base-dir", "", "Base directory merge dirs are reported relative to")
	f.IntVar(&evaluateFlags.workers, "workers", 1, "Number of parallel evaluation workers")
	f.BoolVar(&evaluateFlags.skipFailed, "skip-failed", false, "Skip scenarios whose evaluation fails instead of aborting the batch")
	f.BoolVar(&evaluateFlags.metainfo, "metainfo", false, "Also write file-merge and blob metainfo CSVs next to the output")
	f.StringVar(&evaluateFlags.saveRun, "save-run", "", "Persist this run in the run database under the given label")
	f.StringVar(&evaluateFlags.dbPath, "db", defaultDBPath, "Run database path")
	_ = evaluateCmd.MarkFlagRequired("results")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	log := logging.New("evaluate")

	results, evals, err := evaluateManifest(cmd.Context(), manifestOptions{
		results:    evaluateFlags.results,
		toolsCfg:   evaluateFlags.toolsCfg,
		baseDir:    evaluateFlags.baseDir,
		workers:    evaluateFlags.workers,
		skipFailed: evaluateFlags.skipFailed,
	})
	if err != nil {
		return err
	}

	if err := report.WriteEvaluations(evaluateFlags.output, evals); err != nil {
		return err
	}
	log.Info("evaluations written", "path", evaluateFlags.output, "records", len(evals))

	if evaluateFlags.metainfo {
		merges, blobs := report.GatherMetainfo(results, evaluation.GitBlobs{})
		mergePath := report.MetainfoPath(evaluateFlags.output)
		if err := report.WriteFileMergeMetainfo(mergePath, merges); err != nil {
			return err
		}
		log.Info("file merge metainfo written", "path", mergePath)

		blobPath := report.BlobMetainfoPath(evaluateFlags.output)
		if err := report.WriteBlobMetainfo(blobPath, blobs); err != nil {
			return err
		}
		log.Info("blob metainfo written", "path", blobPath)
	}

	if evaluateFlags.saveRun != "" {
		st, err := store.Open(evaluateFlags.dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		id, err := st.SaveRun(evaluateFlags.saveRun, evals)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		log.Info("run saved", "label", evaluateFlags.saveRun, "id", id)
	}
	return nil
}

