// Package evaluation turns completed merge attempts into comparable
// quality records and decides whether one batch of results regressed
// against another.
package evaluation

import (
	"fmt"
	"strconv"
)

// MergeOutcome tags how a merge tool terminated.
type MergeOutcome string

const (
	// OutcomeSuccess means the tool terminated cleanly and produced an
	// artifact worth comparing.
	OutcomeSuccess MergeOutcome = "SUCCESS"
	// OutcomeFailure means the tool crashed or timed out.
	OutcomeFailure MergeOutcome = "FAILURE"
	// OutcomeAborted means the tool declined to merge.
	OutcomeAborted MergeOutcome = "ABORTED"
)

// ParseOutcome maps the string encoding back to a MergeOutcome.
func ParseOutcome(s string) (MergeOutcome, error) {
	switch MergeOutcome(s) {
	case OutcomeSuccess, OutcomeFailure, OutcomeAborted:
		return MergeOutcome(s), nil
	}
	return "", fmt.Errorf("unknown merge outcome %q", s)
}

// SizeUnknown is the sentinel for diff metrics that were never computed,
// either because the merge did not succeed or because a measurement tool
// failed.
const SizeUnknown = -1

// MergeResult identifies one completed merge attempt. It is produced by
// the merge-execution side and consumed read-only here.
type MergeResult struct {
	MergeDir     string       `yaml:"merge_dir" json:"merge_dir"`
	MergeCmd     string       `yaml:"merge_cmd" json:"merge_cmd"`
	Outcome      MergeOutcome `yaml:"outcome" json:"outcome"`
	Runtime      float64      `yaml:"runtime" json:"runtime"`
	BaseFile     string       `yaml:"base_file" json:"base_file"`
	LeftFile     string       `yaml:"left_file" json:"left_file"`
	RightFile    string       `yaml:"right_file" json:"right_file"`
	ExpectedFile string       `yaml:"expected_file" json:"expected_file"`
	MergeFile    string       `yaml:"merge_file" json:"merge_file"`
}

// MergeEvaluation is one row of evaluation output. Written once, never
// mutated.
type MergeEvaluation struct {
	MergeDir         string
	MergeCmd         string
	Outcome          MergeOutcome
	LineDiffSize     int
	LineDiffSizeNorm int
	TreeDiffSize     int
	TreeDiffSizeNorm int
	ConflictSize     int
	NumConflicts     int
	Runtime          float64
	MergeCommit      string
	BaseBlob         string
	LeftBlob         string
	RightBlob        string
	ExpectedBlob     string
}

// Columns lists the MergeEvaluation attributes in persistence order.
var Columns = []string{
	"merge_dir",
	"merge_cmd",
	"outcome",
	"line_diff_size",
	"line_diff_size_norm",
	"tree_diff_size",
	"tree_diff_size_norm",
	"conflict_size",
	"num_conflicts",
	"runtime",
	"merge_commit",
	"base_blob",
	"left_blob",
	"right_blob",
	"expected_blob",
}

// Column returns the string rendering of the named attribute.
func (m MergeEvaluation) Column(name string) (string, error) {
	switch name {
	case "merge_dir":
		return m.MergeDir, nil
	case "merge_cmd":
		return m.MergeCmd, nil
	case "outcome":
		return string(m.Outcome), nil
	case "line_diff_size":
		return strconv.Itoa(m.LineDiffSize), nil
	case "line_diff_size_norm":
		return strconv.Itoa(m.LineDiffSizeNorm), nil
	case "tree_diff_size":
		return strconv.Itoa(m.TreeDiffSize), nil
	case "tree_diff_size_norm":
		return strconv.Itoa(m.TreeDiffSizeNorm), nil
	case "conflict_size":
		return strconv.Itoa(m.ConflictSize), nil
	case "num_conflicts":
		return strconv.Itoa(m.NumConflicts), nil
	case "runtime":
		return strconv.FormatFloat(m.Runtime, 'f', -1, 64), nil
	case "merge_commit":
		return m.MergeCommit, nil
	case "base_blob":
		return m.BaseBlob, nil
	case "left_blob":
		return m.LeftBlob, nil
	case "right_blob":
		return m.RightBlob, nil
	case "expected_blob":
		return m.ExpectedBlob, nil
	}
	return "", fmt.Errorf("unknown column %q", name)
}

// Values renders every attribute in Columns order.
func (m MergeEvaluation) Values() []string {
	vals := make([]string, len(Columns))
	for i, col := range Columns {
		vals[i], _ = m.Column(col)
	}
	return vals
}
