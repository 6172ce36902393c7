// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a history of conversion runs in a SQLite database:
// one row per run and one per file a stage looked at. The history is only
// reported; no stage consults it to skip work.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/wpconvert/pkg/types"
)

const defaultLimit = 20

// Store manages the ledger database.
type Store struct {
	db *sql.DB
}

// RunSummary is one row of the run history.
type RunSummary struct {
	ID         int64      `json:"id" yaml:"id"`
	Directory  string     `json:"directory" yaml:"directory"`
	Mode       types.Mode `json:"mode" yaml:"mode"`
	DryRun     bool       `json:"dry_run" yaml:"dry_run"`
	Aborted    bool       `json:"aborted" yaml:"aborted"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time  `json:"finished_at" yaml:"finished_at"`
	Done       int        `json:"done" yaml:"done"`
	Skipped    int        `json:"skipped" yaml:"skipped"`
	Failed     int        `json:"failed" yaml:"failed"`
}

// Open opens or creates the ledger at path, creating parent directories and
// the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			directory TEXT NOT NULL,
			mode TEXT NOT NULL,
			dry_run INTEGER NOT NULL,
			aborted INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			stage TEXT NOT NULL,
			source TEXT NOT NULL,
			dest TEXT,
			status TEXT NOT NULL,
			reason TEXT,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_status ON results(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a finished run and all of its file results in one
// transaction and returns the run ID.
func (s *Store) Record(ctx context.Context, report types.Report) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (directory, mode, dry_run, aborted, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		report.Directory, string(report.Mode), report.DryRun, report.Aborted,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, stage, source, dest, status, reason, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, stage := range report.Stages {
		for _, r := range stage.Results {
			if _, err := stmt.ExecContext(ctx,
				runID, string(r.Stage), r.Source, r.Dest, string(r.Status), r.Reason, r.Error,
			); err != nil {
				return 0, fmt.Errorf("inserting result for %s: %w", r.Source, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Runs returns the most recent runs, newest first. A limit of zero or less
// uses the default of 20.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.directory, r.mode, r.dry_run, r.aborted, r.started_at, r.finished_at,
			COALESCE(SUM(CASE WHEN x.status = 'done' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN x.status = 'skipped' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN x.status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN results x ON x.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r                 RunSummary
			mode              string
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Directory, &mode, &r.DryRun, &r.Aborted,
			&started, &finished, &r.Done, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Mode = types.Mode(mode)
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ErrRunNotFound is returned by Results for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Results returns the file results of one run in recording order.
func (s *Store) Results(ctx context.Context, runID int64) ([]types.FileResult, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("looking up run %d: %w", runID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, source, COALESCE(dest, ''), status, COALESCE(reason, ''), COALESCE(error, '')
		FROM results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []types.FileResult
	for rows.Next() {
		var r types.FileResult
		var stage, status string
		if err := rows.Scan(&stage, &r.Source, &r.Dest, &status, &r.Reason, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.Stage = types.Stage(stage)
		r.Status = types.Status(status)
		results = append(results, r)
	}
	return results, rows.Err()
}
