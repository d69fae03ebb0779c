// Package report persists evaluation records and their metainfo side
// outputs as CSV, and loads merge results from a manifest file.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mergebench/internal/evaluation"
)

// FileMergeMetainfo records the identity of one file merge scenario: the
// merge commit plus the blob hash and repository path of each revision.
type FileMergeMetainfo struct {
	MergeCommit  string
	BaseBlob     string
	BasePath     string
	LeftBlob     string
	LeftPath     string
	RightBlob    string
	RightPath    string
	ExpectedBlob string
	ExpectedPath string
}

var fileMergeColumns = []string{
	"merge_commit",
	"base_blob", "base_filepath",
	"left_blob", "left_filepath",
	"right_blob", "right_filepath",
	"expected_blob", "expected_filepath",
}

// BlobMetainfo records line-count metadata for one source blob.
type BlobMetainfo struct {
	Sha      string
	NumLines int
}

var blobColumns = []string{"sha", "num_lines"}

// MetainfoPath returns the file-merge metainfo path that belongs next to
// the given evaluation output file.
func MetainfoPath(base string) string {
	return siblingPath(base, "_file_merge_metainfo.csv")
}

// BlobMetainfoPath returns the blob metainfo path that belongs next to
// the given evaluation output file.
func BlobMetainfoPath(base string) string {
	return siblingPath(base, "_blob_metainfo.csv")
}

func siblingPath(base, suffix string) string {
	stem := strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	return filepath.Join(filepath.Dir(base), stem+suffix)
}

// WriteEvaluations writes evaluation records as CSV with a fixed header.
func WriteEvaluations(path string, evals []evaluation.MergeEvaluation) error {
	rows := make([][]string, 0, len(evals))
	for _, e := range evals {
		rows = append(rows, e.Values())
	}
	return writeCSV(path, evaluation.Columns, rows)
}

// ReadEvaluations loads evaluation records from a CSV previously written
// by WriteEvaluations.
func ReadEvaluations(path string) ([]evaluation.MergeEvaluation, error) {
	rows, err := readCSV(path, evaluation.Columns)
	if err != nil {
		return nil, err
	}

	evals := make([]evaluation.MergeEvaluation, 0, len(rows))
	for i, row := range rows {
		e, err := parseEvaluation(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		evals = append(evals, e)
	}
	return evals, nil
}

func parseEvaluation(row []string) (evaluation.MergeEvaluation, error) {
	outcome, err := evaluation.ParseOutcome(row[2])
	if err != nil {
		return evaluation.MergeEvaluation{}, err
	}

	ints := make([]int, 6)
	for i, raw := range row[3:9] {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return evaluation.MergeEvaluation{}, fmt.Errorf("column %s: %w", evaluation.Columns[3+i], err)
		}
		ints[i] = v
	}
	runtime, err := strconv.ParseFloat(row[9], 64)
	if err != nil {
		return evaluation.MergeEvaluation{}, fmt.Errorf("column runtime: %w", err)
	}

	return evaluation.MergeEvaluation{
		MergeDir:         row[0],
		MergeCmd:         row[1],
		Outcome:          outcome,
		LineDiffSize:     ints[0],
		LineDiffSizeNorm: ints[1],
		TreeDiffSize:     ints[2],
		TreeDiffSizeNorm: ints[3],
		ConflictSize:     ints[4],
		NumConflicts:     ints[5],
		Runtime:          runtime,
		MergeCommit:      row[10],
		BaseBlob:         row[11],
		LeftBlob:         row[12],
		RightBlob:        row[13],
		ExpectedBlob:     row[14],
	}, nil
}

// WriteFileMergeMetainfo writes file-merge metainfo records as CSV.
func WriteFileMergeMetainfo(path string, infos []FileMergeMetainfo) error {
	rows := make([][]string, 0, len(infos))
	for _, m := range infos {
		rows = append(rows, []string{
			m.MergeCommit,
			m.BaseBlob, m.BasePath,
			m.LeftBlob, m.LeftPath,
			m.RightBlob, m.RightPath,
			m.ExpectedBlob, m.ExpectedPath,
		})
	}
	return writeCSV(path, fileMergeColumns, rows)
}

// ReadFileMergeMetainfo loads file-merge metainfo records from CSV.
func ReadFileMergeMetainfo(path string) ([]FileMergeMetainfo, error) {
	rows, err := readCSV(path, fileMergeColumns)
	if err != nil {
		return nil, err
	}

	infos := make([]FileMergeMetainfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, FileMergeMetainfo{
			MergeCommit:  row[0],
			BaseBlob:     row[1],
			BasePath:     row[2],
			LeftBlob:     row[3],
			LeftPath:     row[4],
			RightBlob:    row[5],
			RightPath:    row[6],
			ExpectedBlob: row[7],
			ExpectedPath: row[8],
		})
	}
	return infos, nil
}

// WriteBlobMetainfo writes blob metainfo records as CSV.
func WriteBlobMetainfo(path string, infos []BlobMetainfo) error {
	rows := make([][]string, 0, len(infos))
	for _, m := range infos {
		rows = append(rows, []string{m.Sha, strconv.Itoa(m.NumLines)})
	}
	return writeCSV(path, blobColumns, rows)
}

// ReadBlobMetainfo loads blob metainfo records from CSV.
func ReadBlobMetainfo(path string) ([]BlobMetainfo, error) {
	rows, err := readCSV(path, blobColumns)
	if err != nil {
		return nil, err
	}

	infos := make([]BlobMetainfo, 0, len(rows))
	for i, row := range rows {
		n, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: column num_lines: %w", path, i+2, err)
		}
		infos = append(infos, BlobMetainfo{Sha: row[0], NumLines: n})
	}
	return infos, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	for i, col := range header {
		if records[0][i] != col {
			return nil, fmt.Errorf("%s: header column %d is %q, want %q", path, i+1, records[0][i], col)
		}
	}
	return records[1:], nil
}
