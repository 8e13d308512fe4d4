package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Didstopia/ruffle-manager/internal/filelock"
	"github.com/Didstopia/ruffle-manager/internal/platform"
)

const (
	// StateFileName is the name of the state file
	StateFileName = "state.yaml"
	// ConfigDirName is the name of the config directory
	ConfigDirName = ".ruffle-manager"
)

// Store is the persisted state used by the update orchestrator. Reads see
// writes made by other processes, and a write changes the in-memory view
// only once it has been persisted.
type Store interface {
	Load() error
	Close() error

	InstalledVersion(target platform.Target) (time.Time, bool)
	Installation(target platform.Target) *Installation
	SetInstalled(target platform.Target, asset string, publishedAt time.Time) error

	AddInstallRecord(record *InstallRecord) error
	GetRecentHistory(n int) []*InstallRecord

	IsFirstRunComplete() bool
	SetFirstRunComplete(complete bool) error
}

// DefaultDir returns the directory holding state and lock files
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ConfigDirName), nil
}

// Storage handles YAML state persistence. Writes are serialized across
// processes with a lock file next to the state file and applied to a fresh
// read of the file, so concurrent processes never undo each other's
// changes.
type Storage struct {
	mu       sync.Mutex
	filePath string
	state    *State
}

// NewStorage creates a new storage instance with the default path
func NewStorage() (*Storage, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return NewStorageWithPath(filepath.Join(dir, StateFileName)), nil
}

// NewStorageWithPath creates a new storage instance with a custom path
func NewStorageWithPath(filePath string) *Storage {
	return &Storage{
		filePath: filePath,
		state:    NewState(),
	}
}

// Path returns the state file location
func (s *Storage) Path() string {
	return s.filePath
}

// Load reads the state from disk
func (s *Storage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		return err
	}
	s.state = state
	return nil
}

// Close implements Store; the YAML file needs no teardown
func (s *Storage) Close() error {
	return nil
}

// read parses the state file. A missing file yields an empty state.
func (s *Storage) read() (*State, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No state file yet, use default empty state
			return NewState(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if state.Version < 1 {
		state.Version = 1
	}
	if state.Installs == nil {
		state.Installs = make(map[string]*Installation)
	}
	return &state, nil
}

// snapshot re-reads the file so changes by other processes are visible.
// The last good state is kept when the file cannot be read.
func (s *Storage) snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, err := s.read(); err == nil {
		s.state = state
	}
	return s.state
}

// update applies mutate to the current file contents under the state lock
// and saves. The in-memory state is replaced only after a successful save.
func (s *Storage) update(mutate func(*State)) error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	lock := filelock.New(s.filePath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock state file: %w", err)
	}
	defer lock.Unlock()

	state, err := s.read()
	if err != nil {
		return err
	}
	mutate(state)
	if err := s.write(state); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// write saves state atomically (must be called with the state lock held)
func (s *Storage) write(state *State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	// Write atomically using temp file
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp state file: %w", err)
	}

	return nil
}

// InstalledVersion returns the version marker for a target
func (s *Storage) InstalledVersion(target platform.Target) (time.Time, bool) {
	return s.snapshot().InstalledVersion(target)
}

// Installation returns a copy of the installation record for a target
func (s *Storage) Installation(target platform.Target) *Installation {
	inst, ok := s.snapshot().Installs[target.String()]
	if !ok || inst == nil {
		return nil
	}
	clone := *inst
	return &clone
}

// SetInstalled updates the version marker for a target and saves
func (s *Storage) SetInstalled(target platform.Target, asset string, publishedAt time.Time) error {
	return s.update(func(st *State) {
		st.SetInstalled(target, asset, publishedAt)
	})
}

// AddInstallRecord adds an install record and saves
func (s *Storage) AddInstallRecord(record *InstallRecord) error {
	return s.update(func(st *State) {
		st.AddInstallRecord(record)
	})
}

// GetRecentHistory returns the most recent N install records
func (s *Storage) GetRecentHistory(n int) []*InstallRecord {
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
func (s *Storage) IsFirstRunComplete() bool {
	return s.snapshot().FirstRunComplete
}

// SetFirstRunComplete marks the first-run prompt as answered and saves
func (s *Storage) SetFirstRunComplete(complete bool) error {
	return s.update(func(st *State) {
		st.FirstRunComplete = complete
	})
}
