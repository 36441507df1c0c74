// Package history persists check outcomes in a sqlite database so a later
// run can replay only what failed last time.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Statuses recorded per concrete scenario.
const (
	StatusOK        = "ok"
	StatusUndefined = "undefined"
	StatusAmbiguous = "ambiguous"
	StatusBroken    = "broken"
)

// migrations contains the ordered list of migrations to apply.
var migrations = []string{
	`CREATE TABLE runs (
		id         INTEGER PRIMARY KEY,
		started_at DATETIME NOT NULL DEFAULT (datetime('now')),
		tag_expr   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE checks (
		id       INTEGER PRIMARY KEY,
		run_id   INTEGER NOT NULL REFERENCES runs(id),
		uri      TEXT NOT NULL,
		scenario TEXT NOT NULL,
		row_idx  INTEGER NOT NULL,
		status   TEXT NOT NULL,
		detail   TEXT NOT NULL DEFAULT ''
	)`,
}

// Key identifies one concrete scenario across runs.
type Key struct {
	URI      string
	Scenario string
	Row      int
}

// Result is one scenario's outcome in a run.
type Result struct {
	Key
	Status string
	Detail string
}

// Store wraps the sqlite database holding the check history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and brings
// its schema up to date. Parent directories are created.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one run and its per-scenario results in a single
// transaction, returning the new run's id.
func (s *Store) Record(tagExpr string, results []Result) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning history transaction: %w", err)
	}

	res, err := tx.Exec(`INSERT INTO runs (tag_expr) VALUES (?)`, tagExpr)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("recording run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, r := range results {
		_, err := tx.Exec(
			`INSERT INTO checks (run_id, uri, scenario, row_idx, status, detail) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, r.URI, r.Scenario, r.Row, r.Status, r.Detail,
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("recording check for %s: %w", r.Scenario, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing history: %w", err)
	}
	return runID, nil
}

// LastFailed returns the keys of every scenario that did not pass in the
// most recent run, in recorded order. An empty history yields no keys.
func (s *Store) LastFailed() ([]Key, error) {
	rows, err := s.db.Query(
		`SELECT uri, scenario, row_idx
		 FROM checks
		 WHERE run_id = (SELECT MAX(id) FROM runs) AND status != ?
		 ORDER BY id`, StatusOK)
	if err != nil {
		return nil, fmt.Errorf("reading last failures: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.URI, &k.Scenario, &k.Row); err != nil {
			return nil, fmt.Errorf("scanning failure row: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return fmt.Errorf("checking schema_version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("initializing schema version: %w", err)
		}
	}

	var current int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}

		if _, err := tx.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("updating schema version to %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}

	return nil
}
