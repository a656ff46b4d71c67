// Package runlog keeps a local SQLite history of conversion runs. It is
// bookkeeping only: the converter's output never depends on it.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one recorded converter or extractor invocation.
type Run struct {
	ID          string
	Tool        string
	StartedAt   time.Time
	FinishedAt  time.Time
	InputPath   string
	OutputPath  string
	Status      string // running, success, error
	RowsLoaded  int
	RowsDropped int
	RowsWritten int
	Sessions    int
	Error       string
}

// DB is the run-history database. Opening it takes an exclusive file lock for
// the lifetime of the handle: there is exactly one writer per run.
type DB struct {
	db   *sql.DB
	lock *flock.Flock
}

// Open creates dir if needed, acquires the run lock, and opens (or creates)
// the history database at dir/runs.db.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir %s: %w", dir, err)
	}

	lock := flock.New(filepath.Join(dir, "runs.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking history dir %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("history dir %s is locked: another run is in progress", dir)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "runs.db"))
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		tool         TEXT NOT NULL,
		started_at   TEXT NOT NULL,
		finished_at  TEXT,
		input_path   TEXT NOT NULL,
		output_path  TEXT NOT NULL,
		status       TEXT NOT NULL,
		rows_loaded  INTEGER NOT NULL DEFAULT 0,
		rows_dropped INTEGER NOT NULL DEFAULT 0,
		rows_written INTEGER NOT NULL DEFAULT 0,
		sessions     INTEGER NOT NULL DEFAULT 0,
		error        TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		db.Close()
		lock.Unlock()
		return nil, fmt.Errorf("creating runs table: %w", err)
	}

	return &DB{db: db, lock: lock}, nil
}

// Close releases the database handle and the run lock.
func (d *DB) Close() error {
	err := d.db.Close()
	if uerr := d.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}

// Begin records a new run in "running" state and returns its ID.
func (d *DB) Begin(ctx context.Context, tool, inputPath, outputPath string) (string, error) {
	id := uuid.NewString()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO runs (id, tool, started_at, input_path, output_path, status)
		 VALUES (?, ?, ?, ?, ?, 'running')`,
		id, tool, time.Now().UTC().Format(time.RFC3339), inputPath, outputPath)
	if err != nil {
		return "", fmt.Errorf("recording run start: %w", err)
	}
	return id, nil
}

// Finish moves a run to its terminal state and stores its counters.
// errMsg is empty on success.
func (d *DB) Finish(ctx context.Context, id, status string, rowsLoaded, rowsDropped, rowsWritten, sessions int, errMsg string) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, rows_loaded = ?, rows_dropped = ?,
		 rows_written = ?, sessions = ?, error = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), status,
		rowsLoaded, rowsDropped, rowsWritten, sessions, errMsg, id)
	if err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, tool, started_at, COALESCE(finished_at, ''), input_path, output_path,
		 status, rows_loaded, rows_dropped, rows_written, sessions, error
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Tool, &started, &finished, &r.InputPath, &r.OutputPath,
			&r.Status, &r.RowsLoaded, &r.RowsDropped, &r.RowsWritten, &r.Sessions, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
