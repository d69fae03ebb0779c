package main

import (
	"context"

	"mergebench/internal/diffmetrics"
	"mergebench/internal/evaluation"
	"mergebench/internal/report"
	"mergebench/internal/tools"
)

type manifestOptions struct {
	results    string
	toolsCfg   string
	baseDir    string
	workers    int
	skipFailed bool
}

// evaluateManifest runs the full evaluation pipeline over a results
// manifest and returns both the raw results and their evaluations.
func evaluateManifest(ctx context.Context, opts manifestOptions) ([]evaluation.MergeResult, []evaluation.MergeEvaluation, error) {
	manifest, err := report.LoadManifestFromPath(opts.results)
	if err != nil {
		return nil, nil, err
	}

	cfg := tools.DefaultConfig()
	if opts.toolsCfg != "" {
		cfg, err = tools.LoadConfig(opts.toolsCfg)
		if err != nil {
			return nil, nil, err
		}
	}

	ev := evaluation.New(diffmetrics.New(cfg, tools.ExecRunner{}), opts.baseDir)
	evals, err := ev.EvaluateAll(ctx, manifest.Results, opts.workers, opts.skipFailed)
	if err != nil {
		return nil, nil, err
	}
	return manifest.Results, evals, nil
}
