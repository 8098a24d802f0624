// Package db persists benchmark runs and their results in SQLite.
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store wraps the SQLite database holding benchmark runs and results.
type Store struct {
	db *sql.DB
}

// Run is one benchmarking session.
type Run struct {
	ID        int64
	Timestamp time.Time
	Name      string
	Profile   string
	Workers   int
	Notes     string
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{db: sqlDB}
	if err := store.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS benchmark_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		run_name TEXT,
		test_profile TEXT,
		workers INTEGER,
		notes TEXT
	);
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		provider_name TEXT NOT NULL,
		provider_type TEXT NOT NULL,
		operation TEXT NOT NULL,
		object_size INTEGER NOT NULL,
		object_count INTEGER NOT NULL,
		total_bytes INTEGER NOT NULL,
		duration REAL NOT NULL,
		throughput_mbps REAL NOT NULL,
		ops_per_sec REAL NOT NULL,
		avg_latency_ms REAL NOT NULL,
		min_latency_ms REAL NOT NULL,
		max_latency_ms REAL NOT NULL,
		variance_pct REAL DEFAULT 0.0,
		repeats INTEGER DEFAULT 1,
		FOREIGN KEY (run_id) REFERENCES benchmark_runs (id)
	);
	CREATE INDEX IF NOT EXISTS idx_results_run_id ON results (run_id);
	CREATE INDEX IF NOT EXISTS idx_results_provider ON results (provider_name);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON benchmark_runs (timestamp);
	`)
	if err != nil {
		return err
	}
	return s.migrateColumns()
}

// migrateColumns adds the statistics columns to result tables created by
// older versions of the schema.
func (s *Store) migrateColumns() error {
	rows, err := s.db.Query(`PRAGMA table_info(results)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	existing := map[string]bool{}
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return err
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for col, ddl := range map[string]string{
		"variance_pct": `ALTER TABLE results ADD COLUMN variance_pct REAL DEFAULT 0.0`,
		"repeats":      `ALTER TABLE results ADD COLUMN repeats INTEGER DEFAULT 1`,
	} {
		if !existing[col] {
			if _, err := s.db.Exec(ddl); err != nil {
				return fmt.Errorf("adding column %s: %w", col, err)
			}
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun records a new benchmarking session and returns its ID. An empty
// name gets a generated one so runs stay addressable in reports.
func (s *Store) CreateRun(name, profile string, workers int, notes string) (int64, error) {
	if name == "" {
		name = "run-" + strings.Split(uuid.NewString(), "-")[0]
	}
	res, err := s.db.Exec(
		`INSERT INTO benchmark_runs (timestamp, run_name, test_profile, workers, notes) VALUES (?, ?, ?, ?, ?)`,
		time.Now().Format(time.RFC3339), name, profile, workers, notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Runs returns the most recent sessions, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, COALESCE(run_name, ''), COALESCE(test_profile, ''), COALESCE(workers, 0), COALESCE(notes, '')
		 FROM benchmark_runs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ts string
		if err := rows.Scan(&r.ID, &ts, &r.Name, &r.Profile, &r.Workers, &r.Notes); err != nil {
			return nil, err
		}
		r.Timestamp, _ = time.Parse(time.RFC3339, ts)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
