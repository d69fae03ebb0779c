// Package diffmetrics measures how far a merged artifact deviates from the
// expected result. Two independent strategies are used: a line-based diff
// that ignores whitespace churn, and a tree-structured diff over the parsed
// syntax. Each runs on the raw artifacts and on normalized copies, giving
// four separate sizes that are never merged.
package diffmetrics

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"mergebench/internal/logging"
	"mergebench/internal/normalize"
	"mergebench/internal/tools"
)

// DistanceUnknown is the sentinel for a distance that could not be measured.
const DistanceUnknown = -1

// Sizes holds the four edit-script sizes for one (expected, actual) pair.
type Sizes struct {
	LineDiff     int
	LineDiffNorm int
	TreeDiff     int
	TreeDiffNorm int
}

// Measurer obtains edit scripts from the external diff utilities.
type Measurer struct {
	cfg    tools.Config
	runner tools.Runner
	log    *slog.Logger
}

// New creates a Measurer using the given tool config. A nil runner defaults
// to executing real subprocesses.
func New(cfg tools.Config, runner tools.Runner) *Measurer {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Measurer{cfg: cfg, runner: runner, log: logging.New("diffmetrics")}
}

// Measure computes all four diff sizes between the expected and actual
// artifacts. Normalized copies of both files are written next to the
// originals. A tree-diff failure aborts the measurement; it usually means
// the input does not parse.
func (m *Measurer) Measure(ctx context.Context, expected, actual string) (Sizes, error) {
	expectedNorm, err := normalize.Copy(expected)
	if err != nil {
		return Sizes{}, err
	}
	actualNorm, err := normalize.Copy(actual)
	if err != nil {
		return Sizes{}, err
	}

	lineDiff, err := m.LineDiffScript(ctx, expected, actual, false)
	if err != nil {
		return Sizes{}, err
	}
	lineDiffNorm, err := m.LineDiffScript(ctx, expectedNorm, actualNorm, false)
	if err != nil {
		return Sizes{}, err
	}
	treeDiff, err := m.TreeDiffScript(ctx, expected, actual)
	if err != nil {
		return Sizes{}, err
	}
	treeDiffNorm, err := m.TreeDiffScript(ctx, expectedNorm, actualNorm)
	if err != nil {
		return Sizes{}, err
	}

	return Sizes{
		LineDiff:     len(lineDiff),
		LineDiffNorm: len(lineDiffNorm),
		TreeDiff:     len(treeDiff),
		TreeDiffNorm: len(treeDiffNorm),
	}, nil
}

// LineDiffScript returns the edit script produced by the line-based diff
// utility, configured to ignore line endings, whitespace and blank lines.
// Exit status zero means the files do not differ and yields an empty
// script; exit status one means differences were found; anything else is a
// tool error. With stripMetadata set, only hunk body lines are counted:
// the file headers and "@@" hunk headers are parsed away.
func (m *Measurer) LineDiffScript(ctx context.Context, expected, actual string, stripMetadata bool) ([]string, error) {
	res, err := m.runner.Run(ctx, m.cfg.GitDiff.Invocation(expected, actual))
	if err != nil {
		return nil, err
	}

	switch res.ExitCode {
	case 0:
		return nil, nil
	case 1:
		// differences found
	default:
		return nil, fmt.Errorf("line diff of %s vs %s exited %d: %s",
			expected, actual, res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	if stripMetadata {
		return hunkBodyLines([]byte(res.Stdout))
	}
	return splitLines(res.Stdout), nil
}

// TreeDiffScript returns the edit script produced by the syntax-tree diff
// utility, excluding the lines that report unchanged "Match" mappings. A
// non-zero exit is a hard failure: tree-diff failure usually indicates
// unparsable input.
func (m *Measurer) TreeDiffScript(ctx context.Context, expected, actual string) ([]string, error) {
	res, err := m.runner.Run(ctx, m.cfg.GumTree.Invocation(expected, actual))
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("tree diff of %s vs %s exited %d: %s",
			expected, actual, res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	var script []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.HasPrefix(line, "Match") || strings.TrimSpace(line) == "" {
			continue
		}
		script = append(script, line)
	}
	return script, nil
}

// TreeDistance returns the single-integer distance reported by the external
// tree-comparison utility, taken from the last line of its output. Distance
// measurement is best effort: any tool failure degrades to DistanceUnknown
// with a warning instead of aborting the evaluation.
func (m *Measurer) TreeDistance(ctx context.Context, expected, actual string) int {
	res, err := m.runner.Run(ctx, m.cfg.TreeDistance.Invocation(expected, actual))
	if err != nil {
		m.log.Warn("tree distance failed", "expected", expected, "actual", actual, "err", err)
		return DistanceUnknown
	}
	if res.ExitCode != 0 {
		m.log.Warn("tree distance exited non-zero",
			"expected", expected, "actual", actual,
			"exit", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
		return DistanceUnknown
	}

	lines := splitLines(res.Stdout)
	if len(lines) == 0 {
		m.log.Warn("tree distance produced no output", "expected", expected, "actual", actual)
		return DistanceUnknown
	}
	n, err := strconv.Atoi(strings.TrimSpace(lines[len(lines)-1]))
	if err != nil {
		m.log.Warn("tree distance output not an integer", "line", lines[len(lines)-1])
		return DistanceUnknown
	}
	return n
}

// hunkBodyLines parses unified diff output and returns the change lines
// inside hunks, dropping all header metadata.
func hunkBodyLines(out []byte) ([]string, error) {
	fileDiffs, err := godiff.ParseMultiFileDiff(out)
	if err != nil {
		return nil, fmt.Errorf("parse diff output: %w", err)
	}

	var body []string
	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				if strings.TrimSpace(line) == "" {
					continue
				}
				body = append(body, line)
			}
		}
	}
	return body, nil
}

// splitLines splits trimmed output into lines, dropping trailing blanks.
func splitLines(out string) []string {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}
