// Package history records run outcomes in SQLite. It is a journal of
// what executed and how it went; schedules themselves are derived
// artifacts and are never persisted.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/akarag/waveplan/internal/runner"
)

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID         int64
	Label      string
	Levels     int
	Tasks      int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// TaskRecord is one persisted task outcome.
type TaskRecord struct {
	TaskID   int
	Name     string
	Level    int
	Status   string // "completed", "failed", "skipped"
	Result   string
	Error    string
	Duration time.Duration
}

// Store is a SQLite-backed run journal.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) a store at the given path.
// Parent directories are created; WAL mode and a busy timeout are set
// via the connection string.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	return open(ctx, connStr)
}

// NewMemoryStore opens an in-memory store, used by tests. A shared
// cache lets the connection pool see one database; it lives until the
// store is closed.
func NewMemoryStore(ctx context.Context) (*Store, error) {
	return open(ctx, "file::memory:?mode=memory&cache=shared")
}

func open(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(2)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates all required tables if they don't exist.
func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		levels INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_results (
		run_id INTEGER NOT NULL,
		task_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		level INTEGER NOT NULL,
		status TEXT NOT NULL,
		result TEXT,
		error TEXT,
		duration_ms INTEGER NOT NULL,
		PRIMARY KEY (run_id, task_id),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_task_results_run_id ON task_results(run_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// RecordRun persists one run and its task results, returning the run
// ID. Results with Level -1 are recorded as skipped.
func (s *Store) RecordRun(ctx context.Context, label string, levels int, startedAt, finishedAt time.Time, results []runner.TaskResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (label, levels, started_at, finished_at)
		VALUES (?, ?, ?, ?)
	`, label, levels, startedAt.UTC(), finishedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, r := range results {
		status := "completed"
		errStr := ""
		switch {
		case r.Level < 0:
			status = "skipped"
		case r.Err != nil:
			status = "failed"
			errStr = r.Err.Error()
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO task_results (run_id, task_id, name, level, status, result, error, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, int(r.ID), r.Name, r.Level, status, r.Result, errStr, r.Duration.Milliseconds())
		if err != nil {
			return 0, fmt.Errorf("failed to insert result for task %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return runID, nil
}

// ListRuns returns run summaries, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.label, r.levels, r.started_at, r.finished_at,
			COUNT(t.task_id),
			COALESCE(SUM(CASE WHEN t.status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN task_results t ON t.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Label, &r.Levels, &r.StartedAt, &r.FinishedAt, &r.Tasks, &r.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunResults returns the task records of one run in task-ID order.
func (s *Store) RunResults(ctx context.Context, runID int64) ([]TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, name, level, status, result, error, duration_ms
		FROM task_results
		WHERE run_id = ?
		ORDER BY task_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var records []TaskRecord
	for rows.Next() {
		var rec TaskRecord
		var ms int64
		if err := rows.Scan(&rec.TaskID, &rec.Name, &rec.Level, &rec.Status, &rec.Result, &rec.Error, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		rec.Duration = time.Duration(ms) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
