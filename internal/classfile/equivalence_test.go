package classfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mergebench/internal/tools"
)

// stagePair builds a staging basedir with an expected classfile already in
// place and a loose replayed classfile, mirroring how the build collaborator
// hands units to the checker.
func stagePair(t *testing.T) ClassfilePair {
	t.Helper()
	basedir := t.TempDir()

	expectedDir := filepath.Join(basedir, expectedTree, "com", "ex")
	if err := os.MkdirAll(expectedDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	expected := filepath.Join(expectedDir, "Main.class")
	if err := os.WriteFile(expected, []byte("expected-bytes"), 0o644); err != nil {
		t.Fatalf("write expected: %v", err)
	}

	replayed := filepath.Join(t.TempDir(), "Main.class")
	if err := os.WriteFile(replayed, []byte("replayed-bytes"), 0o644); err != nil {
		t.Fatalf("write replayed: %v", err)
	}

	return ClassfilePair{
		Expected: ExpectedClassfile{
			CopyAbsPath:     expected,
			OriginalRelPath: "target/classes/com/ex/Main.class",
			CopyBaseDir:     basedir,
		},
		Replayed: replayed,
	}
}

func TestCompare_Equal(t *testing.T) {
	pair := stagePair(t)
	ft := &fakeTools{packages: map[string]string{"Main": "com.ex"}, sootdiffExit: 0}
	c := NewChecker(tools.DefaultConfig(), ft)

	verdict, err := c.Compare(context.Background(), pair, "spork")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if verdict != VerdictEqual {
		t.Errorf("verdict = %s, want equal", verdict)
	}

	// The replayed side was staged into the tool-specific package tree.
	staged := filepath.Join(pair.Expected.CopyBaseDir, "spork", "com", "ex", "Main.class")
	if _, err := os.Stat(staged); err != nil {
		t.Errorf("replayed classfile not staged at %s: %v", staged, err)
	}
}

func TestCompare_NotEqual(t *testing.T) {
	pair := stagePair(t)
	ft := &fakeTools{packages: map[string]string{"Main": "com.ex"}, sootdiffExit: 1}
	c := NewChecker(tools.DefaultConfig(), ft)

	verdict, err := c.Compare(context.Background(), pair, "spork")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if verdict != VerdictNotEqual {
		t.Errorf("verdict = %s, want not-equal", verdict)
	}
}

func TestCompare_NameMismatchIsConfigurationError(t *testing.T) {
	pair := stagePair(t)
	pair.Replayed = filepath.Join(filepath.Dir(pair.Replayed), "Other.class")
	if err := os.WriteFile(pair.Replayed, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := NewChecker(tools.DefaultConfig(), &fakeTools{})
	_, err := c.Compare(context.Background(), pair, "spork")
	if !errors.Is(err, ErrNameMismatch) {
		t.Fatalf("err = %v, want ErrNameMismatch", err)
	}
}

func TestCompare_PackageMismatchShortCircuits(t *testing.T) {
	pair := stagePair(t)
	ft := &fakeTools{
		packagesByPath: map[string]string{
			pair.Expected.CopyAbsPath: "com.ex",
			pair.Replayed:             "com.other",
		},
	}
	c := NewChecker(tools.DefaultConfig(), ft)

	verdict, err := c.Compare(context.Background(), pair, "spork")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if verdict != VerdictNotEqual {
		t.Errorf("verdict = %s, want not-equal without bytecode comparison", verdict)
	}
	for _, call := range ft.calls {
		if call == "sootdiff" {
			t.Error("bytecode comparison must not run when packages differ")
		}
	}
}

func TestCompare_ToolFailureYieldsUnknown(t *testing.T) {
	pair := stagePair(t)
	ft := &fakeTools{
		packages:    map[string]string{"Main": "com.ex"},
		sootdiffErr: errors.New("tool timed out"),
	}
	c := NewChecker(tools.DefaultConfig(), ft)

	verdict, err := c.Compare(context.Background(), pair, "spork")
	if err != nil {
		t.Fatalf("an unperformable comparison must not be fatal: %v", err)
	}
	if verdict != VerdictUnknown {
		t.Errorf("verdict = %s, want unknown", verdict)
	}
}

func TestCompare_RestagingIsAnError(t *testing.T) {
	pair := stagePair(t)
	ft := &fakeTools{packages: map[string]string{"Main": "com.ex"}}
	c := NewChecker(tools.DefaultConfig(), ft)

	if _, err := c.Compare(context.Background(), pair, "spork"); err != nil {
		t.Fatalf("first Compare: %v", err)
	}
	if _, err := c.Compare(context.Background(), pair, "spork"); err == nil {
		t.Fatal("staging over an existing classfile must fail")
	}
	// A different tool gets its own staging tree and succeeds.
	if _, err := c.Compare(context.Background(), pair, "jdime"); err != nil {
		t.Errorf("second tool should stage independently: %v", err)
	}
}

func TestRemoveDuplicateCheckcasts(t *testing.T) {
	c := NewChecker(tools.DefaultConfig(), &fakeTools{})

	if err := c.RemoveDuplicateCheckcasts(context.Background(), "/x/Main.class"); err != nil {
		t.Errorf("canonicalize: %v", err)
	}

	err := c.RemoveDuplicateCheckcasts(context.Background(), "/x/Main.java")
	if !errors.Is(err, ErrNotClassfile) {
		t.Errorf("err = %v, want ErrNotClassfile", err)
	}
}

func TestRemoveDuplicateCheckcasts_NonZeroExitIsFatal(t *testing.T) {
	ft := &fakeTools{}
	c := NewChecker(tools.DefaultConfig(), ft)

	// Route the canonicalizer to a failing invocation by pointing the fake
	// at an unknown binary name.
	cfg := tools.DefaultConfig()
	cfg.Checkcast.Argv = []string{"unknown-tool"}
	c = NewChecker(cfg, ft)

	if err := c.RemoveDuplicateCheckcasts(context.Background(), "/x/Main.class"); err == nil {
		t.Fatal("expected canonicalization failure to propagate")
	}
}

func TestCompareAll(t *testing.T) {
	pair := stagePair(t)

	// Second expected unit with no replayed counterpart.
	missingDir := filepath.Join(pair.Expected.CopyBaseDir, expectedTree, "com", "ex")
	missing := filepath.Join(missingDir, "Gone.class")
	if err := os.WriteFile(missing, []byte("y"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	replayedBase := t.TempDir()
	relMain := "target/classes/com/ex/Main.class"
	replayedMain := filepath.Join(replayedBase, relMain)
	if err := os.MkdirAll(filepath.Dir(replayedMain), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(replayedMain, []byte("replayed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	expected := []ExpectedClassfile{
		{CopyAbsPath: pair.Expected.CopyAbsPath, OriginalRelPath: relMain, CopyBaseDir: pair.Expected.CopyBaseDir},
		{CopyAbsPath: missing, OriginalRelPath: "target/classes/com/ex/Gone.class", CopyBaseDir: pair.Expected.CopyBaseDir},
	}

	ft := &fakeTools{packages: map[string]string{"Main": "com.ex"}, sootdiffExit: 0}
	c := NewChecker(tools.DefaultConfig(), ft)

	verdicts, err := c.CompareAll(context.Background(), expected, replayedBase, "spork")
	if err != nil {
		t.Fatalf("CompareAll: %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("got %d verdicts, want 2", len(verdicts))
	}
	if verdicts[0].Verdict != VerdictEqual {
		t.Errorf("present pair verdict = %s, want equal", verdicts[0].Verdict)
	}
	if verdicts[1].Verdict != VerdictNotEqual {
		t.Errorf("missing pair verdict = %s, want not-equal", verdicts[1].Verdict)
	}

	// The canonicalizer ran exactly once, for the pair that exists.
	canonicalizations := 0
	for _, call := range ft.calls {
		if call == "duplicate-checkcast-remover" {
			canonicalizations++
		}
	}
	if canonicalizations != 1 {
		t.Errorf("canonicalizer ran %d times, want 1", canonicalizations)
	}
}
