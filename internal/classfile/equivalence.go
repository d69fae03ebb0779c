package classfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mergebench/internal/logging"
	"mergebench/internal/tools"
)

// Configuration errors: these indicate a caller bug, never a comparison
// outcome, and are always raised.
var (
	// ErrNameMismatch means a pair's classfiles have different base names.
	ErrNameMismatch = errors.New("cannot compare classfiles from different classes")
	// ErrNotClassfile means canonicalization was requested for a file
	// without a .class suffix.
	ErrNotClassfile = errors.New("not a .class file")
)

// expectedTree is the staging subtree holding the expected classfiles; the
// replayed side is staged under a subtree named after the merge tool, so
// repeated runs of different tools never overwrite each other.
const expectedTree = "expected"

// PairVerdict is the outcome of comparing one classfile pair.
type PairVerdict struct {
	Pair    ClassfilePair
	Verdict Verdict
}

// Checker decides behavioral equivalence of compiled units via the
// external bytecode comparison utility.
type Checker struct {
	introspector
}

// NewChecker creates a Checker. A nil runner defaults to executing real
// subprocesses.
func NewChecker(cfg tools.Config, runner tools.Runner) *Checker {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Checker{introspector{cfg: cfg, runner: runner, log: logging.New("equivalence")}}
}

// CompareAll pairs each expected classfile with the replayed build output
// and compares them. A replayed classfile that does not exist is reported
// as not equal with a warning. Canonicalization failure is fatal for the
// whole batch, since it leaves the staging tree in an unusable state.
func (c *Checker) CompareAll(ctx context.Context, expected []ExpectedClassfile, replayedBase, mergeTool string) ([]PairVerdict, error) {
	var verdicts []PairVerdict
	for _, pair := range Pairs(expected, replayedBase) {
		if info, err := os.Stat(pair.Replayed); err != nil || info.IsDir() {
			c.log.Warn("no replayed classfile for expected unit",
				"expected", filepath.Base(pair.Expected.CopyAbsPath))
			verdicts = append(verdicts, PairVerdict{Pair: pair, Verdict: VerdictNotEqual})
			continue
		}

		if err := c.RemoveDuplicateCheckcasts(ctx, pair.Replayed); err != nil {
			return nil, err
		}

		verdict, err := c.Compare(ctx, pair, mergeTool)
		if err != nil {
			return nil, err
		}
		c.log.Info("compared classfile pair",
			"classfile", filepath.Base(pair.Replayed), "verdict", verdict.String())
		verdicts = append(verdicts, PairVerdict{Pair: pair, Verdict: verdict})
	}
	return verdicts, nil
}

// Compare checks one pair for behavioral equivalence. The replayed unit is
// staged into a package-qualified tree named after the merge tool, then
// the external comparison utility runs against the expected and replayed
// trees scoped to the qualified class name. Exit status zero means
// equivalent; a failed or timed-out invocation yields VerdictUnknown, which
// is logged but not fatal to the run.
func (c *Checker) Compare(ctx context.Context, pair ClassfilePair, mergeTool string) (Verdict, error) {
	expected := pair.Expected.CopyAbsPath
	if filepath.Base(expected) != filepath.Base(pair.Replayed) {
		return VerdictUnknown, fmt.Errorf("%w: expected=%s, replayed=%s",
			ErrNameMismatch, filepath.Base(expected), filepath.Base(pair.Replayed))
	}

	expectedPkg, err := c.extractPackage(ctx, expected)
	if err != nil {
		return VerdictUnknown, err
	}
	replayedPkg, err := c.extractPackage(ctx, pair.Replayed)
	if err != nil {
		return VerdictUnknown, err
	}

	basedir := pair.Expected.CopyBaseDir
	expectedBase := filepath.Join(basedir, expectedTree)
	replayedBase := filepath.Join(basedir, mergeTool)

	if _, err := stageToPackageDir(pair.Replayed, replayedPkg, replayedBase); err != nil {
		return VerdictUnknown, err
	}

	// Different packages can never be behaviorally identical; skip the
	// external tool entirely.
	if expectedPkg != replayedPkg {
		return VerdictNotEqual, nil
	}

	qualname := expectedPkg + "." + stem(expected)
	res, err := c.runner.Run(ctx, c.cfg.SootDiff.Invocation(
		"-qname", qualname, "-reffile", expectedBase, "-otherfile", replayedBase))
	if err != nil {
		c.log.Warn("bytecode comparison could not be performed", "qualname", qualname, "err", err)
		return VerdictUnknown, nil
	}
	if res.ExitCode == 0 {
		return VerdictEqual, nil
	}
	return VerdictNotEqual, nil
}

// RemoveDuplicateCheckcasts canonicalizes a classfile in place, removing
// the duplicated checkcast instructions some compilers emit for casts on
// parenthesized expressions. They carry no semantic difference but would
// otherwise show up as bytecode inequality. Failure here is fatal for the
// pair being evaluated.
func (c *Checker) RemoveDuplicateCheckcasts(ctx context.Context, path string) error {
	if filepath.Ext(path) != ".class" {
		return fmt.Errorf("%w: %s", ErrNotClassfile, path)
	}

	res, err := c.runner.Run(ctx, c.cfg.Checkcast.Invocation(path))
	if err != nil {
		return fmt.Errorf("canonicalize %s: %w", path, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("canonicalize %s: exit %d: %s",
			path, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// stageToPackageDir copies the classfile into basedir under its package's
// directory hierarchy. An already-staged destination is an error, not a
// silent skip: overwriting would let two runs contaminate each other.
func stageToPackageDir(classfile, pkg, basedir string) (string, error) {
	pkgDir := filepath.Join(basedir, filepath.Join(strings.Split(pkg, ".")...))
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		return "", fmt.Errorf("create package dir: %w", err)
	}

	dst := filepath.Join(pkgDir, filepath.Base(classfile))
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("classfile %s already staged", dst)
	}

	if err := copyFile(classfile, dst); err != nil {
		return "", fmt.Errorf("stage classfile: %w", err)
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
