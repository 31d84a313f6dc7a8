// Package storage persists finished runs in SQLite.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/pose-match/internal/game"
	"github.com/vovakirdan/pose-match/internal/level"
)

// Store manages the SQLite database connection for run results.
type Store struct {
	db *sql.DB
}

// RunResult is one finished run.
type RunResult struct {
	ID            string // UUID, assigned by SaveRun when empty
	Player        string
	Source        string
	Difficulty    string
	Status        string // "completed" or "failed"
	LevelsCleared int
	TotalLevels   int
	Duration      time.Duration
	Levels        []LevelResult
	CreatedAt     time.Time
}

// LevelResult is how a single level of a run ended.
type LevelResult struct {
	Level    int
	Status   string
	Score    float64
	Duration time.Duration
}

// RunStats aggregates all stored runs.
type RunStats struct {
	Runs       int
	Completed  int
	Failed     int
	BestTime   time.Duration
	AvgTime    time.Duration
	LastPlayed time.Time
}

// RunFromView builds a result from the final view of a run.
func RunFromView(v game.View) RunResult {
	res := RunResult{
		Status:      v.RunStatus.String(),
		TotalLevels: v.TotalLevels,
		Duration:    v.Elapsed,
	}
	for _, o := range v.Outcomes {
		res.Levels = append(res.Levels, LevelResult{
			Level:    o.Level,
			Status:   o.Status.String(),
			Score:    o.Score,
			Duration: o.Duration,
		})
		if o.Status == level.StatusPassed {
			res.LevelsCleared++
		}
	}
	return res
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			player TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			difficulty TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			levels_cleared INTEGER NOT NULL DEFAULT 0,
			total_levels INTEGER NOT NULL DEFAULT 0,
			total_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_best ON runs(status, total_ms);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);

		CREATE TABLE IF NOT EXISTS level_results (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			level INTEGER NOT NULL,
			status TEXT NOT NULL,
			score REAL NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, level)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a finished run with its level results.
// Returns the run ID.
func (s *Store) SaveRun(run RunResult) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs
		 (id, player, source, difficulty, status, levels_cleared, total_levels, total_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Player, run.Source, run.Difficulty, run.Status,
		run.LevelsCleared, run.TotalLevels, run.Duration.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot save run: %w", err)
	}

	for _, lr := range run.Levels {
		_, err = tx.Exec(
			`INSERT INTO level_results (run_id, level, status, score, duration_ms)
			 VALUES (?, ?, ?, ?, ?)`,
			run.ID, lr.Level, lr.Status, lr.Score, lr.Duration.Milliseconds(),
		)
		if err != nil {
			return "", fmt.Errorf("storage: cannot save level %d: %w", lr.Level, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage: cannot commit run: %w", err)
	}
	return run.ID, nil
}

const runColumns = `id, player, source, difficulty, status, levels_cleared, total_levels, total_ms, created_at`

// BestTimes returns the fastest completed runs, quickest first.
func (s *Store) BestTimes(limit int) ([]RunResult, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryRuns(
		`SELECT `+runColumns+` FROM runs
		 WHERE status = 'completed'
		 ORDER BY total_ms ASC, created_at ASC
		 LIMIT ?`,
		limit,
	)
}

// RecentRuns returns the latest runs of any status, newest first.
func (s *Store) RecentRuns(limit int) ([]RunResult, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(
		`SELECT `+runColumns+` FROM runs
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
}

// RunByID retrieves a run and its level results. Returns nil if not found.
func (s *Store) RunByID(id string) (*RunResult, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT level, status, score, duration_ms
		 FROM level_results WHERE run_id = ? ORDER BY level`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query level results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lr LevelResult
		var ms int64
		if err := rows.Scan(&lr.Level, &lr.Status, &lr.Score, &ms); err != nil {
			return nil, fmt.Errorf("storage: cannot scan level row: %w", err)
		}
		lr.Duration = time.Duration(ms) * time.Millisecond
		run.Levels = append(run.Levels, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return &run, nil
}

// Stats aggregates every stored run.
func (s *Store) Stats() (*RunStats, error) {
	stats := &RunStats{}
	var best, avg sql.NullFloat64
	var lastPlayed any

	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(status = 'completed'), 0),
		        COALESCE(SUM(status = 'failed'), 0),
		        MIN(CASE WHEN status = 'completed' THEN total_ms END),
		        AVG(CASE WHEN status = 'completed' THEN total_ms END),
		        MAX(created_at)
		 FROM runs`,
	).Scan(&stats.Runs, &stats.Completed, &stats.Failed, &best, &avg, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get run stats: %w", err)
	}

	if best.Valid {
		stats.BestTime = time.Duration(best.Float64) * time.Millisecond
	}
	if avg.Valid {
		stats.AvgTime = time.Duration(avg.Float64 * float64(time.Millisecond))
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}

// ClearRuns deletes every stored run.
func (s *Store) ClearRuns() error {
	if _, err := s.db.Exec("DELETE FROM level_results"); err != nil {
		return fmt.Errorf("storage: cannot clear level results: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM runs"); err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	return nil
}

func (s *Store) queryRuns(query string, args ...any) ([]RunResult, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunResult
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunResult, error) {
	var run RunResult
	var ms int64
	var createdAt any

	err := row.Scan(
		&run.ID,
		&run.Player,
		&run.Source,
		&run.Difficulty,
		&run.Status,
		&run.LevelsCleared,
		&run.TotalLevels,
		&ms,
		&createdAt,
	)
	if err != nil {
		return run, err
	}
	run.Duration = time.Duration(ms) * time.Millisecond
	run.CreatedAt = parseTime(createdAt)
	return run, nil
}

// parseTime handles the driver returning DATETIME as either time.Time or text.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
