package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists API call and scenario telemetry across runs.
type Store struct {
	db *sql.DB
}

// NewStore creates a new history store at the given path.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	// Scenarios may report concurrently; sqlite handles one writer.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS api_requests (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			api         TEXT NOT NULL,
			method      TEXT NOT NULL,
			status_code INTEGER,
			duration_ns INTEGER,
			success     INTEGER NOT NULL,
			timestamp   TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS scenario_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			feature     TEXT NOT NULL,
			scenario    TEXT NOT NULL,
			passed      INTEGER NOT NULL,
			duration_ns INTEGER,
			error       TEXT,
			timestamp   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_requests_run ON api_requests(run_id);
		CREATE INDEX IF NOT EXISTS idx_scenarios_run ON scenario_runs(run_id);
		CREATE INDEX IF NOT EXISTS idx_scenarios_timestamp ON scenario_runs(timestamp DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating history tables: %w", err)
	}
	return nil
}

// AddRequest inserts an API call entry.
func (s *Store) AddRequest(e RequestEntry) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO api_requests (run_id, api, method, status_code, duration_ns, success, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.API, e.Method, e.StatusCode, e.Duration.Nanoseconds(), boolInt(e.Success),
		e.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting request: %w", err)
	}
	return result.LastInsertId()
}

// AddScenario inserts a scenario outcome.
func (s *Store) AddScenario(e ScenarioEntry) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO scenario_runs (run_id, feature, scenario, passed, duration_ns, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Feature, e.Scenario, boolInt(e.Passed), e.Duration.Nanoseconds(), e.Error,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting scenario: %w", err)
	}
	return result.LastInsertId()
}

// Scenarios returns the most recent scenario outcomes.
func (s *Store) Scenarios(limit, offset int) ([]ScenarioEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, run_id, feature, scenario, passed, duration_ns, error, timestamp
		FROM scenario_runs
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	defer rows.Close()

	return scanScenarios(rows)
}

// SearchScenarios finds scenario outcomes whose feature or name contains query.
func (s *Store) SearchScenarios(query string) ([]ScenarioEntry, error) {
	like := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT id, run_id, feature, scenario, passed, duration_ns, error, timestamp
		FROM scenario_runs
		WHERE scenario LIKE ? OR feature LIKE ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 50`, like, like)
	if err != nil {
		return nil, fmt.Errorf("searching scenarios: %w", err)
	}
	defer rows.Close()

	return scanScenarios(rows)
}

// Requests returns the API calls recorded for a run.
func (s *Store) Requests(runID string) ([]RequestEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, api, method, status_code, duration_ns, success, timestamp
		FROM api_requests
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var entries []RequestEntry
	for rows.Next() {
		var e RequestEntry
		var durationNs int64
		var success int
		var ts string
		if err := rows.Scan(&e.ID, &e.RunID, &e.API, &e.Method, &e.StatusCode, &durationNs, &success, &ts); err != nil {
			return nil, fmt.Errorf("scanning request row: %w", err)
		}
		e.Duration = time.Duration(durationNs)
		e.Success = success != 0
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Runs summarizes the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT run_id, MIN(timestamp), COUNT(*), SUM(passed), SUM(duration_ns)
		FROM scenario_runs
		GROUP BY run_id
		ORDER BY MIN(timestamp) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started string
		var durationNs int64
		if err := rows.Scan(&r.RunID, &started, &r.Scenarios, &r.Passed, &durationNs); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.Started, _ = time.Parse(time.RFC3339Nano, started)
		r.Failed = r.Scenarios - r.Passed
		r.Duration = time.Duration(durationNs)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Clear removes all recorded telemetry.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM api_requests; DELETE FROM scenario_runs")
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanScenarios(rows *sql.Rows) ([]ScenarioEntry, error) {
	var entries []ScenarioEntry
	for rows.Next() {
		var e ScenarioEntry
		var durationNs int64
		var passed int
		var errMsg sql.NullString
		var ts string
		err := rows.Scan(&e.ID, &e.RunID, &e.Feature, &e.Scenario, &passed, &durationNs, &errMsg, &ts)
		if err != nil {
			return nil, fmt.Errorf("scanning scenario row: %w", err)
		}
		e.Passed = passed != 0
		e.Duration = time.Duration(durationNs)
		e.Error = errMsg.String
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Count returns the number of recorded scenario outcomes.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM scenario_runs").Scan(&n)
	return n, err
}
