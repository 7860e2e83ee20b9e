// Package history persists finished batch runs in a local SQLite database so
// past imports can be inspected from the CLI and the web UI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/hyperengineering/pressync/internal/sync"
	"github.com/hyperengineering/pressync/migrations"
)

// Compile-time interface check
var _ sync.Recorder = (*Store)(nil)

// Store is the SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// RunRecord is one persisted batch run.
type RunRecord struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Site      string    `json:"site"`
	Total     int       `json:"total"`
	Succeeded int       `json:"success_count"`
	Failed    int       `json:"failed_count"`
	Duration  float64   `json:"duration_seconds"`
	StartedAt time.Time `json:"started_at"`
}

// NewStore opens (or creates) the history database at dbPath, enabling WAL
// mode and applying migrations.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// enablePragmas sets SQLite pragmas for performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

// runMigrations applies pending migrations from the embedded SQL files.
func runMigrations(db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun persists a finished batch run and its outcomes in one transaction.
func (s *Store) RecordRun(ctx context.Context, summary *sync.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, site, total, succeeded, failed, duration_ms, started_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, string(summary.Mode), summary.Site,
		summary.Total, summary.Succeeded, summary.Failed,
		summary.Duration.Milliseconds(),
		summary.StartedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, o := range summary.Outcomes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_outcomes (run_id, row_number, title, action, remote_id, remote_status, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			summary.RunID, o.RowNumber, o.Title, string(o.Action),
			nullableInt(o.RemoteID), nullableString(o.RemoteStatus), nullableString(o.Err),
		)
		if err != nil {
			return fmt.Errorf("insert outcome row %d: %w", o.RowNumber, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, site, total, succeeded, failed, duration_ms, started_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec        RunRecord
			durationMS int64
			startedAt  string
		)
		if err := rows.Scan(&rec.ID, &rec.Mode, &rec.Site, &rec.Total,
			&rec.Succeeded, &rec.Failed, &durationMS, &startedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Duration = float64(durationMS) / 1000.0
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			rec.StartedAt = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetOutcomes returns the ordered outcomes of one run.
func (s *Store) GetOutcomes(ctx context.Context, runID string) ([]sync.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_number, title, action, remote_id, remote_status, error
		 FROM run_outcomes WHERE run_id = ? ORDER BY row_number`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []sync.Outcome
	for rows.Next() {
		var (
			o        sync.Outcome
			action   string
			remoteID sql.NullInt64
			status   sql.NullString
			rowErr   sql.NullString
		)
		if err := rows.Scan(&o.RowNumber, &o.Title, &action, &remoteID, &status, &rowErr); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Action = sync.Action(action)
		o.RemoteID = int(remoteID.Int64)
		o.RemoteStatus = status.String
		o.Err = rowErr.String
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
