// Package history indexes past review runs in a local sqlite database so
// `ralph history` can list them without re-reading every run-log blob.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded review run.
type Run struct {
	ID               int64
	Timestamp        time.Time
	SpecPath         string
	SpecType         string
	Verdict          string
	DurationMs       int64
	CompletedPrompts int
	TotalPrompts     int
	LogPath          string
}

// Store wraps the sqlite database holding the run index.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	spec_path TEXT NOT NULL,
	spec_type TEXT NOT NULL,
	verdict TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	completed_prompts INTEGER NOT NULL,
	total_prompts INTEGER NOT NULL,
	log_path TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(ts);
`

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one run into the index.
func (s *Store) Record(run Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (ts, spec_path, spec_type, verdict, duration_ms, completed_prompts, total_prompts, log_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Timestamp.UTC().Format(time.RFC3339),
		run.SpecPath, run.SpecType, run.Verdict,
		run.DurationMs, run.CompletedPrompts, run.TotalPrompts, run.LogPath,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, ts, spec_path, spec_type, verdict, duration_ms, completed_prompts, total_prompts, log_path
		 FROM runs ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var ts string
		if err := rows.Scan(&run.ID, &ts, &run.SpecPath, &run.SpecType, &run.Verdict,
			&run.DurationMs, &run.CompletedPrompts, &run.TotalPrompts, &run.LogPath); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			run.Timestamp = parsed
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
