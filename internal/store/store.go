// Package store keeps a history of evaluation runs in SQLite, so new
// results can be gated against a stored reference run instead of a CSV
// lying around on disk.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mergebench/internal/evaluation"
)

// ErrRunNotFound is returned when no stored run matches the reference.
var ErrRunNotFound = errors.New("run not found")

// Run describes one stored evaluation run.
type Run struct {
	ID        string
	Label     string
	CreatedAt time.Time
	Records   int
}

// Store is the SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the run database at path, creating the parent
// directory if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if n == 0 {
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun stores a labelled run with all its evaluation records and
// returns the run id. Labels are unique; reusing one is an error.
func (s *Store) SaveRun(label string, evals []evaluation.MergeEvaluation) (string, error) {
	if label == "" {
		return "", errors.New("run label must not be empty")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		"INSERT INTO runs(id, label, created_at) VALUES(?, ?, ?)",
		id, label, createdAt,
	); err != nil {
		return "", fmt.Errorf("insert run %q: %w", label, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO evaluations(
		run_id, seq, merge_dir, merge_cmd, outcome,
		line_diff_size, line_diff_size_norm, tree_diff_size, tree_diff_size_norm,
		conflict_size, num_conflicts, runtime, merge_commit,
		base_blob, left_blob, right_blob, expected_blob
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for seq, e := range evals {
		if _, err := stmt.Exec(
			id, seq, e.MergeDir, e.MergeCmd, string(e.Outcome),
			e.LineDiffSize, e.LineDiffSizeNorm, e.TreeDiffSize, e.TreeDiffSizeNorm,
			e.ConflictSize, e.NumConflicts, e.Runtime, e.MergeCommit,
			e.BaseBlob, e.LeftBlob, e.RightBlob, e.ExpectedBlob,
		); err != nil {
			return "", fmt.Errorf("insert evaluation %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save run: %w", err)
	}
	return id, nil
}

// ListRuns returns all stored runs, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.label, r.created_at, COUNT(e.id)
		FROM runs r LEFT JOIN evaluations e ON e.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.label`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Label, &createdAt, &r.Records); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadRun loads a stored run as an EvaluationSet. ref matches either the
// run id or its label.
func (s *Store) LoadRun(ref string) (*evaluation.EvaluationSet, error) {
	var runID string
	err := s.db.QueryRow("SELECT id FROM runs WHERE id = ? OR label = ?", ref, ref).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve run %q: %w", ref, err)
	}

	rows, err := s.db.Query(`
		SELECT merge_dir, merge_cmd, outcome,
			line_diff_size, line_diff_size_norm, tree_diff_size, tree_diff_size_norm,
			conflict_size, num_conflicts, runtime, merge_commit,
			base_blob, left_blob, right_blob, expected_blob
		FROM evaluations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %q: %w", ref, err)
	}
	defer rows.Close()

	var evals []evaluation.MergeEvaluation
	for rows.Next() {
		var e evaluation.MergeEvaluation
		var outcome string
		if err := rows.Scan(
			&e.MergeDir, &e.MergeCmd, &outcome,
			&e.LineDiffSize, &e.LineDiffSizeNorm, &e.TreeDiffSize, &e.TreeDiffSizeNorm,
			&e.ConflictSize, &e.NumConflicts, &e.Runtime, &e.MergeCommit,
			&e.BaseBlob, &e.LeftBlob, &e.RightBlob, &e.ExpectedBlob,
		); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		e.Outcome, err = evaluation.ParseOutcome(outcome)
		if err != nil {
			return nil, fmt.Errorf("run %q: %w", ref, err)
		}
		evals = append(evals, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return evaluation.NewSet(evals), nil
}
