package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mergebench/internal/evaluation"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() []evaluation.MergeEvaluation {
	return []evaluation.MergeEvaluation{
		{
			MergeDir:         "1a2b3c/Main.java",
			MergeCmd:         "spork",
			Outcome:          evaluation.OutcomeSuccess,
			LineDiffSize:     4,
			LineDiffSizeNorm: 2,
			TreeDiffSize:     3,
			TreeDiffSizeNorm: 1,
			ConflictSize:     3,
			NumConflicts:     1,
			Runtime:          2.25,
			MergeCommit:      "1a2b3c",
			BaseBlob:         "b1",
			LeftBlob:         "b2",
			RightBlob:        "b3",
			ExpectedBlob:     "b4",
		},
		{
			MergeDir:         "4d5e6f/Util.java",
			MergeCmd:         "spork",
			Outcome:          evaluation.OutcomeAborted,
			LineDiffSize:     evaluation.SizeUnknown,
			LineDiffSizeNorm: evaluation.SizeUnknown,
			TreeDiffSize:     evaluation.SizeUnknown,
			TreeDiffSizeNorm: evaluation.SizeUnknown,
			Runtime:          60,
			MergeCommit:      "4d5e6f",
		},
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openStore(t)
	want := sampleRun()

	id, err := s.SaveRun("baseline", want)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == "" {
		t.Fatal("SaveRun returned an empty id")
	}

	for _, ref := range []string{id, "baseline"} {
		set, err := s.LoadRun(ref)
		if err != nil {
			t.Fatalf("LoadRun(%q): %v", ref, err)
		}
		if diff := cmp.Diff(want, set.Records); diff != "" {
			t.Errorf("LoadRun(%q) mismatch (-want +got):\n%s", ref, diff)
		}
	}
}

func TestLoadRun_Unknown(t *testing.T) {
	s := openStore(t)
	if _, err := s.LoadRun("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("LoadRun error = %v, want ErrRunNotFound", err)
	}
}

func TestSaveRun_DuplicateLabel(t *testing.T) {
	s := openStore(t)
	if _, err := s.SaveRun("baseline", sampleRun()); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if _, err := s.SaveRun("baseline", sampleRun()); err == nil {
		t.Fatal("SaveRun accepted a duplicate label")
	}
}

func TestSaveRun_EmptyLabel(t *testing.T) {
	s := openStore(t)
	if _, err := s.SaveRun("", nil); err == nil {
		t.Fatal("SaveRun accepted an empty label")
	}
}

func TestListRuns(t *testing.T) {
	s := openStore(t)

	if runs, err := s.ListRuns(); err != nil || len(runs) != 0 {
		t.Fatalf("ListRuns on empty store: %v, %v", runs, err)
	}

	id1, err := s.SaveRun("baseline", sampleRun())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveRun("candidate", sampleRun()[:1]); err != nil {
		t.Fatal(err)
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}

	byLabel := map[string]Run{}
	for _, r := range runs {
		byLabel[r.Label] = r
	}
	if byLabel["baseline"].ID != id1 || byLabel["baseline"].Records != 2 {
		t.Errorf("baseline run = %+v", byLabel["baseline"])
	}
	if byLabel["candidate"].Records != 1 {
		t.Errorf("candidate run = %+v", byLabel["candidate"])
	}
	if byLabel["baseline"].CreatedAt.IsZero() {
		t.Error("CreatedAt not recorded")
	}
}
