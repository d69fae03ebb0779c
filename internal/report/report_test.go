package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mergebench/internal/evaluation"
)

func sampleEvaluations() []evaluation.MergeEvaluation {
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
			MergeCmd:         "jdime",
			Outcome:          evaluation.OutcomeFailure,
			LineDiffSize:     evaluation.SizeUnknown,
			LineDiffSizeNorm: evaluation.SizeUnknown,
			TreeDiffSize:     evaluation.SizeUnknown,
			TreeDiffSizeNorm: evaluation.SizeUnknown,
			Runtime:          60,
			MergeCommit:      "4d5e6f",
		},
	}
}

func TestEvaluationsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	want := sampleEvaluations()

	if err := WriteEvaluations(path, want); err != nil {
		t.Fatalf("WriteEvaluations: %v", err)
	}
	got, err := ReadEvaluations(path)
	if err != nil {
		t.Fatalf("ReadEvaluations: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadEvaluations_RejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	if err := os.WriteFile(path, []byte("foo,bar\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadEvaluations(path); err == nil {
		t.Fatal("ReadEvaluations accepted a foreign header")
	}
}

func TestReadEvaluations_RejectsBadOutcome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	evals := sampleEvaluations()
	if err := WriteEvaluations(path, evals); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	corrupted := strings.Replace(string(data), "SUCCESS", "MAYBE", 1)
	if err := os.WriteFile(path, []byte(corrupted), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadEvaluations(path); err == nil {
		t.Fatal("ReadEvaluations accepted an unknown outcome")
	}
}

func TestFileMergeMetainfoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.csv")
	want := []FileMergeMetainfo{
		{
			MergeCommit:  "1a2b3c",
			BaseBlob:     "b1", BasePath: "src/Main.java",
			LeftBlob:     "b2", LeftPath: "src/Main.java",
			RightBlob:    "b3", RightPath: "src/Main.java",
			ExpectedBlob: "b4", ExpectedPath: "src/Main.java",
		},
	}

	if err := WriteFileMergeMetainfo(path, want); err != nil {
		t.Fatalf("WriteFileMergeMetainfo: %v", err)
	}
	got, err := ReadFileMergeMetainfo(path)
	if err != nil {
		t.Fatalf("ReadFileMergeMetainfo: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBlobMetainfoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobs.csv")
	want := []BlobMetainfo{
		{Sha: "ce013625030ba8dba906f756967f9e9ca394464a", NumLines: 1},
		{Sha: "deadbeef", NumLines: 120},
	}

	if err := WriteBlobMetainfo(path, want); err != nil {
		t.Fatalf("WriteBlobMetainfo: %v", err)
	}
	got, err := ReadBlobMetainfo(path)
	if err != nil {
		t.Fatalf("ReadBlobMetainfo: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSiblingPaths(t *testing.T) {
	base := filepath.Join("out", "results.csv")
	if got, want := MetainfoPath(base), filepath.Join("out", "results_file_merge_metainfo.csv"); got != want {
		t.Errorf("MetainfoPath = %q, want %q", got, want)
	}
	if got, want := BlobMetainfoPath(base), filepath.Join("out", "results_blob_metainfo.csv"); got != want {
		t.Errorf("BlobMetainfoPath = %q, want %q", got, want)
	}
}
