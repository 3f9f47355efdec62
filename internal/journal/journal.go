// Package journal keeps a local SQLite record of provisioning runs.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tasnim.dev/hostprep/internal/provision"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	account_id     TEXT NOT NULL DEFAULT '',
	region         TEXT NOT NULL DEFAULT '',
	repository_uri TEXT NOT NULL DEFAULT '',
	outcome        TEXT NOT NULL,
	started_at     INTEGER NOT NULL,
	finished_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS steps (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Journal persists run reports.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
// The parent directory is created with 0700 permissions.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	// One writer at a time; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores a run report and its step results in one transaction.
func (j *Journal) Record(ctx context.Context, report provision.Report, accountID, region string) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, account_id, region, repository_uri, outcome, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, accountID, region, report.RepositoryURI, report.Outcome(),
		report.StartedAt.UnixMilli(), report.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", report.RunID, err)
	}

	for i, res := range report.Results {
		var errText string
		if res.Err != nil {
			errText = res.Err.Error()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO steps (run_id, position, name, description, status, error, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, i+1, res.Step, res.Desc, string(res.Status), errText, res.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("inserting step %s: %w", res.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", report.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first, with per-run failure counts.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT r.id, r.account_id, r.region, r.repository_uri, r.outcome, r.started_at, r.finished_at,
		        COUNT(s.position), COALESCE(SUM(CASE WHEN s.status = 'failure' THEN 1 ELSE 0 END), 0)
		   FROM runs r
		   LEFT JOIN steps s ON s.run_id = r.id
		  GROUP BY r.id
		  ORDER BY r.started_at DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.AccountID, &r.Region, &r.RepositoryURI, &r.Outcome,
			&started, &finished, &r.Steps, &r.Failures); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Steps returns the step rows of a run in execution order.
func (j *Journal) Steps(ctx context.Context, runID string) ([]StepRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT position, name, description, status, error, duration_ms
		   FROM steps WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var s StepRecord
		var ms int64
		if err := rows.Scan(&s.Position, &s.Name, &s.Description, &s.Status, &s.Error, &ms); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		s.Duration = time.Duration(ms) * time.Millisecond
		steps = append(steps, s)
	}
	return steps, rows.Err()
}
