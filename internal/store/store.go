package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/menuprobe/internal/config"
	"github.com/ibeckermayer/menuprobe/internal/types"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// DefaultPath returns the history database location in the cache directory
func DefaultPath() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "history.db"), nil
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scenario TEXT NOT NULL,
		url TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		lines TEXT,
		screenshot TEXT,
		screenshot_size INTEGER,
		error TEXT,
		diff_pixels INTEGER,
		diff_total INTEGER,
		diff_error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun records a finished run and returns its row id
func (s *Store) SaveRun(r *types.Report) (int64, error) {
	linesJSON, err := json.Marshal(r.Lines)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal lines: %w", err)
	}

	var diffPixels, diffTotal sql.NullInt64
	var diffError sql.NullString
	if r.Diff != nil {
		diffPixels = sql.NullInt64{Int64: int64(r.Diff.Pixels), Valid: true}
		diffTotal = sql.NullInt64{Int64: int64(r.Diff.Total), Valid: true}
		diffError = sql.NullString{String: r.Diff.Error, Valid: true}
	}

	res, err := s.db.Exec(`
		INSERT INTO runs (scenario, url, started_at, finished_at, lines,
			screenshot, screenshot_size, error, diff_pixels, diff_total, diff_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Scenario, r.URL, r.StartedAt.UTC(), r.FinishedAt.UTC(), string(linesJSON),
		r.Screenshot, r.ScreenshotSize, r.Error, diffPixels, diffTotal, diffError)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// Run is a stored report with its row id
type Run struct {
	ID int64
	types.Report
}

// RecentRuns returns the latest runs, newest first. An empty scenario matches
// every scenario.
func (s *Store) RecentRuns(scenario string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, scenario, url, started_at, finished_at, lines,
			screenshot, screenshot_size, error, diff_pixels, diff_total, diff_error
		FROM runs
		WHERE ? = '' OR scenario = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, scenario, scenario, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                     Run
			url, shot, errMsg     sql.NullString
			linesJSON             sql.NullString
			size                  sql.NullInt64
			diffPixels, diffTotal sql.NullInt64
			diffError             sql.NullString
		)

		err := rows.Scan(
			&r.ID, &r.Scenario, &url, &r.StartedAt, &r.FinishedAt, &linesJSON,
			&shot, &size, &errMsg, &diffPixels, &diffTotal, &diffError,
		)
		if err != nil {
			return nil, err
		}

		r.URL = url.String
		r.Screenshot = shot.String
		r.ScreenshotSize = size.Int64
		r.Error = errMsg.String
		if linesJSON.Valid {
			if err := json.Unmarshal([]byte(linesJSON.String), &r.Lines); err != nil {
				log.Printf("[store] skipping run %d: corrupt lines: %v", r.ID, err)
				continue
			}
		}
		if diffPixels.Valid {
			r.Diff = &types.Diff{
				Pixels: int(diffPixels.Int64),
				Total:  int(diffTotal.Int64),
				Error:  diffError.String,
			}
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Prune deletes runs that started before cutoff and returns how many went
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
