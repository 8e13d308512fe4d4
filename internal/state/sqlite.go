package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Didstopia/ruffle-manager/internal/platform"
)

// Supported state drivers
const (
	DriverYAML   = "yaml"
	DriverSQLite = "sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS installs (
	target       TEXT PRIMARY KEY,
	published_at TEXT NOT NULL,
	asset        TEXT NOT NULL,
	installed_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS flags (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS history (
	id           TEXT PRIMARY KEY,
	target       TEXT NOT NULL,
	asset        TEXT NOT NULL,
	published_at TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	completed_at TEXT NOT NULL,
	sha256       TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT ''
);
`

const flagFirstRun = "first_run_complete"

// SQLiteStore keeps state in a SQLite database. Reads query the database
// so rows written by other processes are visible; the copy held in memory
// is only a fallback for when a query fails.
type SQLiteStore struct {
	mu    sync.RWMutex
	path  string
	db    *sql.DB
	state *State
}

// NewSQLiteStore creates a store backed by the database at path
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path, state: NewState()}
}

// Open returns the store for driver, rooted at path. An empty driver
// selects YAML.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", DriverYAML:
		return NewStorageWithPath(path), nil
	case DriverSQLite:
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unknown state driver %q", driver)
	}
}

// DefaultPath returns the default state file for driver
func DefaultPath(driver string) (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	if driver == DriverSQLite {
		return filepath.Join(dir, "state.db"), nil
	}
	return filepath.Join(dir, StateFileName), nil
}

// Load opens the database, creates the schema and reads the state
func (s *SQLiteStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
		if err != nil {
			return fmt.Errorf("failed to open state database: %w", err)
		}
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(sqliteSchema); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to create state schema: %w", err)
		}
		s.db = db
	}

	state, err := s.read()
	if err != nil {
		return err
	}
	s.state = state
	return nil
}

// read loads every table (must be called with mu held and the db open)
func (s *SQLiteStore) read() (*State, error) {
	state := NewState()

	rows, err := s.db.Query(`SELECT target, published_at, asset, installed_at FROM installs`)
	if err != nil {
		return nil, fmt.Errorf("failed to read installs: %w", err)
	}
	for rows.Next() {
		var target, installedAt string
		inst := &Installation{}
		if err := rows.Scan(&target, &inst.PublishedAt, &inst.Asset, &installedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to read installs: %w", err)
		}
		inst.InstalledAt = parseTime(installedAt)
		state.Installs[target] = inst
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read installs: %w", err)
	}

	var firstRun int
	err = s.db.QueryRow(`SELECT value FROM flags WHERE name = ?`, flagFirstRun).Scan(&firstRun)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("failed to read flags: %w", err)
	default:
		state.FirstRunComplete = firstRun != 0
	}

	rows, err = s.db.Query(`SELECT id, target, asset, published_at, started_at, completed_at, sha256, error
		FROM history ORDER BY started_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var publishedAt, startedAt, completedAt string
		r := &InstallRecord{}
		if err := rows.Scan(&r.ID, &r.Target, &r.Asset, &publishedAt, &startedAt, &completedAt, &r.SHA256, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to read history: %w", err)
		}
		r.PublishedAt = parseTime(publishedAt)
		r.StartedAt = parseTime(startedAt)
		r.CompletedAt = parseTime(completedAt)
		state.History = append(state.History, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return state, nil
}

// snapshot returns the current database contents, or the last good state
// when the database cannot be read
func (s *SQLiteStore) snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if state, err := s.read(); err == nil {
			s.state = state
		}
	}
	return s.state
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// InstalledVersion returns the version marker for a target
func (s *SQLiteStore) InstalledVersion(target platform.Target) (time.Time, bool) {
	return s.snapshot().InstalledVersion(target)
}

// Installation returns a copy of the installation record for a target
func (s *SQLiteStore) Installation(target platform.Target) *Installation {
	inst, ok := s.snapshot().Installs[target.String()]
	if !ok || inst == nil {
		return nil
	}
	clone := *inst
	return &clone
}

// SetInstalled updates the version marker for a target
func (s *SQLiteStore) SetInstalled(target platform.Target, asset string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("state database is not open")
	}

	inst := NewInstallation(asset, publishedAt)
	_, err := s.db.Exec(`INSERT INTO installs (target, published_at, asset, installed_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(target) DO UPDATE SET published_at = excluded.published_at,
			asset = excluded.asset, installed_at = excluded.installed_at`,
		target.String(), inst.PublishedAt, inst.Asset, formatTime(inst.InstalledAt))
	if err != nil {
		return fmt.Errorf("failed to save install: %w", err)
	}

	s.state = s.state.withInstallation(target, inst)
	return nil
}

// AddInstallRecord adds an install record, pruning history beyond MaxHistory
func (s *SQLiteStore) AddInstallRecord(record *InstallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("state database is not open")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to save install record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT OR REPLACE INTO history
		(id, target, asset, published_at, started_at, completed_at, sha256, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Target, record.Asset, formatTime(record.PublishedAt),
		formatTime(record.StartedAt), formatTime(record.CompletedAt), record.SHA256, record.Error)
	if err != nil {
		return fmt.Errorf("failed to save install record: %w", err)
	}

	_, err = tx.Exec(`DELETE FROM history WHERE id NOT IN
		(SELECT id FROM history ORDER BY started_at DESC LIMIT ?)`, MaxHistory)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to save install record: %w", err)
	}

	s.state = s.state.withRecord(record)
	return nil
}

// GetRecentHistory returns the most recent N install records
func (s *SQLiteStore) GetRecentHistory(n int) []*InstallRecord {
	if n <= 0 {
		return []*InstallRecord{}
	}
	history := s.snapshot().History
	if len(history) > n {
		history = history[len(history)-n:]
	}
	result := make([]*InstallRecord, len(history))
	copy(result, history)
	return result
}

// IsFirstRunComplete returns whether the first-run prompt has been answered
func (s *SQLiteStore) IsFirstRunComplete() bool {
	return s.snapshot().FirstRunComplete
}

// SetFirstRunComplete marks the first-run prompt as answered
func (s *SQLiteStore) SetFirstRunComplete(complete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("state database is not open")
	}

	value := 0
	if complete {
		value = 1
	}
	_, err := s.db.Exec(`INSERT INTO flags (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`, flagFirstRun, value)
	if err != nil {
		return fmt.Errorf("failed to save first-run flag: %w", err)
	}

	next := s.state.clone()
	next.FirstRunComplete = complete
	s.state = next
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
