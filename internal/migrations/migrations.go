package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add lookup indices for history filtering",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_benchmark_runs_framework ON benchmark_runs(framework);
			CREATE INDEX IF NOT EXISTS idx_benchmark_runs_endpoint ON benchmark_runs(endpoint);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_benchmark_runs_framework;
			DROP INDEX IF EXISTS idx_benchmark_runs_endpoint;
		`,
	},
	{
		Version: 2,
		Name:    "Add composite index for outcome replay",
		Up: `
			-- Outcomes are replayed per run in completion order
			CREATE INDEX IF NOT EXISTS idx_benchmark_outcomes_run_seq ON benchmark_outcomes(run_id, completion_order);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_benchmark_outcomes_run_seq;
		`,
	},
}

// InitSchema creates all tables required by the run history.
// This must be called before running migrations to ensure all tables exist
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS benchmark_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		framework TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		method TEXT NOT NULL,
		base_url TEXT NOT NULL,
		path TEXT NOT NULL,
		body TEXT,
		concurrency INTEGER NOT NULL,
		total_requests INTEGER NOT NULL,
		request_timeout_ms INTEGER NOT NULL DEFAULT 0,
		max_rps REAL NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		total_time_ns INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_benchmark_runs_started_at ON benchmark_runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS benchmark_outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		completion_order INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		status_code INTEGER NOT NULL DEFAULT 0,
		latency_ns INTEGER NOT NULL,
		error_kind TEXT,
		detail TEXT,
		FOREIGN KEY (run_id) REFERENCES benchmark_runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_benchmark_outcomes_run_id ON benchmark_outcomes(run_id);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Run executes all pending migrations on the database
func Run(db *sql.DB) error {
	// Initialize schema first to ensure all tables exist
	if err := InitSchema(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Create migrations tracking table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	// Apply pending migrations
	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		if _, err := db.Exec(migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		_, err = db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}
