package store

const schemaVersion = 1

var schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	label      TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS evaluations (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id              TEXT NOT NULL REFERENCES runs(id),
	seq                 INTEGER NOT NULL,
	merge_dir           TEXT NOT NULL,
	merge_cmd           TEXT NOT NULL,
	outcome             TEXT NOT NULL,
	line_diff_size      INTEGER NOT NULL,
	line_diff_size_norm INTEGER NOT NULL,
	tree_diff_size      INTEGER NOT NULL,
	tree_diff_size_norm INTEGER NOT NULL,
	conflict_size       INTEGER NOT NULL,
	num_conflicts       INTEGER NOT NULL,
	runtime             REAL NOT NULL,
	merge_commit        TEXT NOT NULL,
	base_blob           TEXT NOT NULL,
	left_blob           TEXT NOT NULL,
	right_blob          TEXT NOT NULL,
	expected_blob       TEXT NOT NULL,
	UNIQUE(run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_evaluations_run ON evaluations(run_id);
`
