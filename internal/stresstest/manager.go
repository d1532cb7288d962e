package stresstest

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/webbench/internal/migrations"
	"github.com/studiowebux/webbench/internal/types"
)

// ErrRunNotFound is returned for an id with no stored run
var ErrRunNotFound = errors.New("run not found")

// Manager handles benchmark run persistence
type Manager struct {
	db *sql.DB
}

// StoredRun is a persisted run with its database identifier
type StoredRun struct {
	ID     int64
	Result *types.RunResult
}

// RunFilter narrows ListRuns. Zero values match everything.
type RunFilter struct {
	Framework string
	Endpoint  string
	Limit     int
}

// NewManager opens (or creates) the run database at dbPath
func NewManager(dbPath string) (*Manager, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Manager{db: db}, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}

// SaveRun stores the run header and every outcome in one transaction
func (m *Manager) SaveRun(result *types.RunResult) (int64, error) {
	if result == nil {
		return 0, fmt.Errorf("cannot save nil run")
	}

	tx, err := m.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	target := result.Target
	res, err := tx.Exec(`
		INSERT INTO benchmark_runs
		(framework, endpoint, method, base_url, path, body, concurrency, total_requests,
		 request_timeout_ms, max_rps, started_at, total_time_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.Framework, result.Endpoint, target.MethodOrDefault(), target.BaseURL, target.Path, target.Body,
		result.Config.Concurrency, result.Config.TotalRequests, result.Config.RequestTimeout.Milliseconds(),
		result.Config.MaxRPS, result.StartedAt.UTC(), int64(result.TotalTime))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO benchmark_outcomes
		(run_id, completion_order, succeeded, status_code, latency_ns, error_kind, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, o := range result.Outcomes {
		_, err := stmt.Exec(runID, i, o.Succeeded, o.StatusCode, int64(o.Latency), string(o.ErrorKind), o.Detail)
		if err != nil {
			return 0, fmt.Errorf("failed to insert outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

const runColumns = `id, framework, endpoint, method, base_url, path, COALESCE(body, ''), concurrency,
	total_requests, request_timeout_ms, max_rps, started_at, total_time_ns`

// LoadRun rebuilds a stored run including its outcomes
func (m *Manager) LoadRun(id int64) (*StoredRun, error) {
	row := m.db.QueryRow(`SELECT `+runColumns+` FROM benchmark_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := m.loadOutcomes(run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns stored runs, newest first, with their outcomes
func (m *Manager) ListRuns(filter RunFilter) ([]*StoredRun, error) {
	var where []string
	var args []interface{}
	if filter.Framework != "" {
		where = append(where, "framework = ?")
		args = append(args, filter.Framework)
	}
	if filter.Endpoint != "" {
		where = append(where, "endpoint = ?")
		args = append(args, filter.Endpoint)
	}

	query := `SELECT ` + runColumns + ` FROM benchmark_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, err
	}

	var runs []*StoredRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Outcomes are read after the run cursor is released
	for _, run := range runs {
		if err := m.loadOutcomes(run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// DeleteRun deletes a run and all its outcomes
func (m *Manager) DeleteRun(id int64) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM benchmark_outcomes WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete outcomes: %w", err)
	}
	res, err := tx.Exec("DELETE FROM benchmark_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*StoredRun, error) {
	var (
		id          int64
		result      types.RunResult
		timeoutMs   int64
		totalTimeNs int64
	)
	err := row.Scan(&id, &result.Framework, &result.Endpoint, &result.Target.Method, &result.Target.BaseURL,
		&result.Target.Path, &result.Target.Body, &result.Config.Concurrency, &result.Config.TotalRequests,
		&timeoutMs, &result.Config.MaxRPS, &result.StartedAt, &totalTimeNs)
	if err != nil {
		return nil, err
	}

	result.Target.Label = result.Endpoint
	result.Config.RequestTimeout = time.Duration(timeoutMs) * time.Millisecond
	result.TotalTime = time.Duration(totalTimeNs)
	return &StoredRun{ID: id, Result: &result}, nil
}

func (m *Manager) loadOutcomes(run *StoredRun) error {
	rows, err := m.db.Query(`
		SELECT succeeded, status_code, latency_ns, COALESCE(error_kind, ''), COALESCE(detail, '')
		FROM benchmark_outcomes
		WHERE run_id = ?
		ORDER BY completion_order
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load outcomes for run %d: %w", run.ID, err)
	}
	defer rows.Close()

	outcomes := make([]types.RequestOutcome, 0, run.Result.Config.TotalRequests)
	for rows.Next() {
		var (
			o         types.RequestOutcome
			latencyNs int64
			errorKind string
		)
		if err := rows.Scan(&o.Succeeded, &o.StatusCode, &latencyNs, &errorKind, &o.Detail); err != nil {
			return err
		}
		o.Latency = time.Duration(latencyNs)
		o.ErrorKind = types.ErrorKind(errorKind)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	run.Result.Outcomes = outcomes
	return nil
}

// Recorder is an Observer that saves every finished run
type Recorder struct {
	manager *Manager
	logger  *slog.Logger
}

// NewRecorder creates an observer persisting runs through m
func NewRecorder(m *Manager, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{manager: m, logger: logger}
}

func (r *Recorder) RunStarted(string, types.EndpointTarget, types.BenchmarkConfig) {}

func (r *Recorder) OutcomeRecorded(string, types.EndpointTarget, types.RequestOutcome) {}

// RunFinished saves the run. A failed save is logged and does not stop the benchmark.
func (r *Recorder) RunFinished(result *types.RunResult) {
	id, err := r.manager.SaveRun(result)
	if err != nil {
		r.logger.Error("failed to save run", "framework", result.Framework, "endpoint", result.Endpoint, "error", err)
		return
	}
	r.logger.Debug("run saved", "id", id, "framework", result.Framework, "endpoint", result.Endpoint)
}
