package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mergebench/internal/evaluation"
	"mergebench/internal/report"
	"mergebench/internal/store"
)

func TestLoadReference_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.csv")
	evals := []evaluation.MergeEvaluation{{
		MergeDir: "1a2b3c/Main.java",
		MergeCmd: "spork",
		Outcome:  evaluation.OutcomeSuccess,
	}}
	if err := report.WriteEvaluations(path, evals); err != nil {
		t.Fatal(err)
	}

	set, err := loadReference(path, "")
	if err != nil {
		t.Fatalf("loadReference: %v", err)
	}
	if len(set.Records) != 1 || set.Records[0].MergeCmd != "spork" {
		t.Errorf("records = %+v", set.Records)
	}
}

func TestLoadReference_StoredRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.SaveRun("baseline", []evaluation.MergeEvaluation{{
		MergeDir: "1a2b3c/Main.java",
		MergeCmd: "spork",
		Outcome:  evaluation.OutcomeFailure,
	}}); err != nil {
		t.Fatal(err)
	}
	st.Close()

	set, err := loadReference("run:baseline", dbPath)
	if err != nil {
		t.Fatalf("loadReference: %v", err)
	}
	if len(set.Records) != 1 || set.Records[0].Outcome != evaluation.OutcomeFailure {
		t.Errorf("records = %+v", set.Records)
	}

	if _, err := loadReference("run:missing", dbPath); err == nil {
		t.Fatal("loadReference accepted an unknown run")
	}
}

func TestConflictsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.java")
	content := strings.Join([]string{
		"class A {",
		"<<<<<<< LEFT",
		"    int l;",
		"=======",
		"    int r;",
		">>>>>>> RIGHT",
		"}",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	conflictsCmd.SetOut(&out)
	if err := runConflicts(conflictsCmd, []string{path}); err != nil {
		t.Fatalf("runConflicts: %v", err)
	}
	if !strings.Contains(out.String(), "1 conflicts, 2 conflicting lines") {
		t.Errorf("output = %q", out.String())
	}

	clean := filepath.Join(t.TempDir(), "clean.java")
	if err := os.WriteFile(clean, []byte("class A {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := runConflicts(conflictsCmd, []string{clean}); err != nil {
		t.Fatalf("runConflicts: %v", err)
	}
	if !strings.Contains(out.String(), "no conflicts") {
		t.Errorf("output = %q", out.String())
	}
}
