package evaluation

import (
	"log/slog"

	"mergebench/internal/format"
	"mergebench/internal/logging"
)

// EvaluationSet is an ordered collection of evaluation records, keyed
// implicitly by (merge directory, merge command).
type EvaluationSet struct {
	Records []MergeEvaluation

	log *slog.Logger
}

// NewSet wraps records in an EvaluationSet. The slice is not copied.
func NewSet(records []MergeEvaluation) *EvaluationSet {
	return &EvaluationSet{Records: records, log: logging.New("evaluation")}
}

// Extract projects one named column across all records, in record order.
func (s *EvaluationSet) Extract(column string) ([]string, error) {
	vals := make([]string, len(s.Records))
	for i, rec := range s.Records {
		v, err := rec.Column(column)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

type scenarioKey struct {
	MergeDir string
	MergeCmd string
}

// ScenarioDiff pairs a reference record with the candidate record for
// the same scenario, if the candidate has one.
type ScenarioDiff struct {
	MergeDir    string
	MergeCmd    string
	Ref         MergeEvaluation
	Candidate   MergeEvaluation
	InCandidate bool
}

// Diff lines up this set against a reference set, one entry per
// reference scenario, in the reference's record order.
func (s *EvaluationSet) Diff(ref *EvaluationSet) []ScenarioDiff {
	byKey := make(map[scenarioKey]MergeEvaluation, len(s.Records))
	for _, rec := range s.Records {
		byKey[scenarioKey{rec.MergeDir, rec.MergeCmd}] = rec
	}

	diffs := make([]ScenarioDiff, 0, len(ref.Records))
	for _, old := range ref.Records {
		key := scenarioKey{old.MergeDir, old.MergeCmd}
		cand, ok := byKey[key]
		diffs = append(diffs, ScenarioDiff{
			MergeDir:    key.MergeDir,
			MergeCmd:    key.MergeCmd,
			Ref:         old,
			Candidate:   cand,
			InCandidate: ok,
		})
	}
	return diffs
}

// AtLeastAsGoodAs reports whether this set did not regress against the
// reference. A scenario missing from this set counts as a regression.
// For scenarios present in both, a successful merge beats any
// unsuccessful one regardless of metrics; between two successful merges
// the normalized tree diff must not grow.
func (s *EvaluationSet) AtLeastAsGoodAs(ref *EvaluationSet) bool {
	for _, d := range s.Diff(ref) {
		if !d.InCandidate {
			return false
		}
		if worseThan(d.Candidate, d.Ref) {
			return false
		}
	}
	return true
}

func worseThan(cand, ref MergeEvaluation) bool {
	candOK := cand.Outcome == OutcomeSuccess
	refOK := ref.Outcome == OutcomeSuccess
	switch {
	case candOK && refOK:
		return cand.TreeDiffSizeNorm > ref.TreeDiffSizeNorm
	case !candOK && refOK:
		return true
	default:
		return false
	}
}

// LogDiffs renders the per-scenario old/new comparison table for human
// review before the aggregate verdict.
func (s *EvaluationSet) LogDiffs(ref *EvaluationSet) {
	tbl := format.NewTable(format.ASCII)
	tbl.Header("Merge dir", "Tool", "Old outcome", "New outcome", "Old tree diff", "New tree diff")
	tbl.Columns(
		format.ColumnConfig{Number: 1, MaxWidth: 60},
		format.ColumnConfig{Number: 5, Align: format.AlignRight},
		format.ColumnConfig{Number: 6, Align: format.AlignRight},
	)
	for _, d := range s.Diff(ref) {
		newOutcome := "MISSING"
		newDiff := "-"
		if d.InCandidate {
			newOutcome = string(d.Candidate.Outcome)
			newDiff, _ = d.Candidate.Column("tree_diff_size_norm")
		}
		oldDiff, _ := d.Ref.Column("tree_diff_size_norm")
		tbl.Row(d.MergeDir, d.MergeCmd, string(d.Ref.Outcome), newOutcome, oldDiff, newDiff)
	}
	s.log.Info("evaluation diff against reference\n" + tbl.String())
}
