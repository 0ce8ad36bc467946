// Package state keeps a local journal of sync runs so `csync status`
// can answer "what happened last" without touching the remote store.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/csync-dev/csync/internal/domain"
)

// Journal records sync run outcomes in a SQLite database
type Journal struct {
	db *sql.DB
}

// RunRecord is one journal row: the outcome of syncing one file once
type RunRecord struct {
	ID           int64
	Name         string
	StartTime    time.Time
	EndTime      time.Time
	Relationship string
	Action       string
	Status       string // "success", "conflict", "failed"
	Error        string
}

// Run statuses
const (
	StatusSuccess  = "success"
	StatusConflict = "conflict"
	StatusFailed   = "failed"
)

// Open opens (creating if necessary) the journal under dataDir
func Open(dataDir string) (*Journal, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataDir, "csync.db"))
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent use
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}
	return j, nil
}

// initSchema creates the journal schema
func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		relationship TEXT NOT NULL,
		action TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_name_time ON runs(name, start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends one run outcome
func (j *Journal) Record(rec RunRecord) error {
	switch rec.Status {
	case StatusSuccess, StatusConflict, StatusFailed:
	default:
		return fmt.Errorf("invalid status: %q", rec.Status)
	}

	_, err := j.db.Exec(`
		INSERT INTO runs (name, start_time, end_time, relationship, action, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.StartTime, rec.EndTime, rec.Relationship, rec.Action, rec.Status, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// RecordResult is a convenience wrapper turning a RunResult plus
// timing into a journal row
func (j *Journal) RecordResult(res domain.RunResult, start, end time.Time, runErr error) error {
	rec := RunRecord{
		Name:         res.Name,
		StartTime:    start,
		EndTime:      end,
		Relationship: res.Relationship.String(),
		Action:       string(res.Action),
		Status:       StatusSuccess,
	}
	if res.Action == domain.ActionConflict {
		rec.Status = StatusConflict
	}
	if runErr != nil {
		rec.Status = StatusFailed
		rec.Error = runErr.Error()
	}
	return j.Record(rec)
}

// Recent returns the most recent runs for a file, newest first.
// An empty name returns runs for all files.
func (j *Journal) Recent(name string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, name, start_time, end_time, relationship, action, status, COALESCE(error, '')
		FROM runs`
	args := []any{}
	if name != "" {
		query += " WHERE name = ?"
		args = append(args, name)
	}
	query += " ORDER BY start_time DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.StartTime, &rec.EndTime,
			&rec.Relationship, &rec.Action, &rec.Status, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LastRun returns the most recent run for a file, or nil if none
func (j *Journal) LastRun(name string) (*RunRecord, error) {
	records, err := j.Recent(name, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Prune deletes records older than the cutoff
func (j *Journal) Prune(olderThan time.Time) (int64, error) {
	res, err := j.db.Exec("DELETE FROM runs WHERE start_time < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the journal database
func (j *Journal) Close() error {
	return j.db.Close()
}
