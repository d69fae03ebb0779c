package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"mergebench/internal/conflict"
	"mergebench/internal/diffmetrics"
	"mergebench/internal/logging"
)

// Evaluator builds one MergeEvaluation per MergeResult.
type Evaluator struct {
	metrics *diffmetrics.Measurer
	blobs   BlobIdentifier
	baseDir string
	log     *slog.Logger
}

// New returns an Evaluator that measures diffs with m and identifies
// revision content with git blob hashes. baseDir, when non-empty, is
// stripped from merge directories so records stay portable across
// machines.
func New(m *diffmetrics.Measurer, baseDir string) *Evaluator {
	return &Evaluator{
		metrics: m,
		blobs:   GitBlobs{},
		baseDir: baseDir,
		log:     logging.New("evaluation"),
	}
}

// SetBlobIdentifier replaces the content-identity source.
func (e *Evaluator) SetBlobIdentifier(b BlobIdentifier) {
	e.blobs = b
}

// Evaluate gathers the evaluation record for one merge result. Metrics
// stay at SizeUnknown and conflict statistics at zero unless the merge
// succeeded. Tree-diff failure on a successful merge fails the scenario;
// blob-identity failures degrade to empty hashes with a warning.
func (e *Evaluator) Evaluate(ctx context.Context, res MergeResult) (MergeEvaluation, error) {
	eval := MergeEvaluation{
		MergeDir:         e.relMergeDir(res.MergeDir),
		MergeCmd:         res.MergeCmd,
		Outcome:          res.Outcome,
		LineDiffSize:     SizeUnknown,
		LineDiffSizeNorm: SizeUnknown,
		TreeDiffSize:     SizeUnknown,
		TreeDiffSizeNorm: SizeUnknown,
		Runtime:          res.Runtime,
	}
	eval.MergeCommit = CommitFromDir(eval.MergeDir)

	if res.Outcome == OutcomeSuccess {
		conflicts, err := conflict.ParseFile(res.MergeFile)
		if err != nil {
			return MergeEvaluation{}, fmt.Errorf("extract conflicts: %w", err)
		}
		for _, c := range conflicts {
			eval.ConflictSize += c.NumLines()
		}
		eval.NumConflicts = len(conflicts)

		sizes, err := e.metrics.Measure(ctx, res.ExpectedFile, res.MergeFile)
		if err != nil {
			return MergeEvaluation{}, fmt.Errorf("measure diffs: %w", err)
		}
		eval.LineDiffSize = sizes.LineDiff
		eval.LineDiffSizeNorm = sizes.LineDiffNorm
		eval.TreeDiffSize = sizes.TreeDiff
		eval.TreeDiffSizeNorm = sizes.TreeDiffNorm
	}

	eval.BaseBlob = e.identify(res.BaseFile)
	eval.LeftBlob = e.identify(res.LeftFile)
	eval.RightBlob = e.identify(res.RightFile)
	eval.ExpectedBlob = e.identify(res.ExpectedFile)
	return eval, nil
}

// EvaluateAll evaluates every result with up to workers goroutines,
// preserving input order. With skipFailed, scenarios whose evaluation
// fails are logged and dropped from the output; otherwise the first
// failure aborts the batch.
func (e *Evaluator) EvaluateAll(ctx context.Context, results []MergeResult, workers int, skipFailed bool) ([]MergeEvaluation, error) {
	if workers < 1 {
		workers = 1
	}
	evals := make([]MergeEvaluation, len(results))
	failed := make([]bool, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, res := range results {
		i, res := i, res
		g.Go(func() error {
			eval, err := e.Evaluate(gctx, res)
			if err != nil {
				if skipFailed {
					e.log.Warn("skipping failed scenario",
						"merge_dir", res.MergeDir, "merge_cmd", res.MergeCmd, "error", err)
					failed[i] = true
					return nil
				}
				return fmt.Errorf("evaluate %s with %s: %w", res.MergeDir, res.MergeCmd, err)
			}
			evals[i] = eval
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := evals[:0]
	for i, eval := range evals {
		if !failed[i] {
			kept = append(kept, eval)
		}
	}
	return kept, nil
}

func (e *Evaluator) identify(path string) string {
	sha, err := e.blobs.Identify(path)
	if err != nil {
		e.log.Warn("blob identity unavailable", "path", path, "error", err)
		return ""
	}
	return sha
}

func (e *Evaluator) relMergeDir(dir string) string {
	if e.baseDir == "" {
		return dir
	}
	rel, err := filepath.Rel(e.baseDir, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return dir
	}
	return rel
}

// CommitFromDir reads the merge commit sha off the merge directory,
// whose first path element names the commit in the benchmark layout.
func CommitFromDir(dir string) string {
	dir = filepath.ToSlash(dir)
	if i := strings.IndexByte(dir, '/'); i > 0 {
		return dir[:i]
	}
	return dir
}
