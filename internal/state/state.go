// Package state provides persistence for installed player versions, the
// first-run flag and install history
package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/Didstopia/ruffle-manager/internal/platform"
)

// MaxHistory is the number of install records kept
const MaxHistory = 100

// State represents the persisted application state
type State struct {
	Version          int                      `yaml:"version"`
	FirstRunComplete bool                     `yaml:"first_run_complete,omitempty"`
	Installs         map[string]*Installation `yaml:"installs"`
	History          []*InstallRecord         `yaml:"history"`
}

// Installation is the version marker of a target. PublishedAt is kept as
// an RFC 3339 string with sub-second precision.
type Installation struct {
	PublishedAt string    `yaml:"published_at"`
	Asset       string    `yaml:"asset"`
	InstalledAt time.Time `yaml:"installed_at"`
}

// InstallRecord represents a completed or failed install attempt
type InstallRecord struct {
	ID          string    `yaml:"id"`
	Target      string    `yaml:"target"`
	Asset       string    `yaml:"asset"`
	PublishedAt time.Time `yaml:"published_at"`
	StartedAt   time.Time `yaml:"started_at"`
	CompletedAt time.Time `yaml:"completed_at"`
	SHA256      string    `yaml:"sha256,omitempty"`
	Error       string    `yaml:"error,omitempty"`
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Version:  1,
		Installs: make(map[string]*Installation),
		History:  make([]*InstallRecord, 0),
	}
}

// NewInstallRecord creates a new install record with a generated ID
func NewInstallRecord(target platform.Target, asset string, publishedAt time.Time) *InstallRecord {
	return &InstallRecord{
		ID:          uuid.New().String(),
		Target:      target.String(),
		Asset:       asset,
		PublishedAt: publishedAt,
		StartedAt:   time.Now(),
	}
}

// Complete marks the record finished, recording err if the attempt failed
func (r *InstallRecord) Complete(err error) {
	r.CompletedAt = time.Now()
	if err != nil {
		r.Error = err.Error()
	}
}

// Succeeded reports whether the attempt completed without error
func (r *InstallRecord) Succeeded() bool {
	return !r.CompletedAt.IsZero() && r.Error == ""
}

// InstalledVersion returns the publish time of the installed artifact for a
// target. A missing or unreadable marker is reported as absent.
func (s *State) InstalledVersion(target platform.Target) (time.Time, bool) {
	inst, ok := s.Installs[target.String()]
	if !ok || inst == nil || inst.PublishedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, inst.PublishedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SetInstalled records the installed artifact for a target
func (s *State) SetInstalled(target platform.Target, asset string, publishedAt time.Time) {
	if s.Installs == nil {
		s.Installs = make(map[string]*Installation)
	}
	s.Installs[target.String()] = NewInstallation(asset, publishedAt)
}

// NewInstallation creates the marker for an artifact installed now. The
// publish time keeps its full precision so it compares equal to the feed's.
func NewInstallation(asset string, publishedAt time.Time) *Installation {
	return &Installation{
		PublishedAt: publishedAt.UTC().Format(time.RFC3339Nano),
		Asset:       asset,
		InstalledAt: time.Now(),
	}
}

// AddInstallRecord adds a record to history
func (s *State) AddInstallRecord(record *InstallRecord) {
	s.History = append(s.History, record)
	if len(s.History) > MaxHistory {
		s.History = s.History[len(s.History)-MaxHistory:]
	}
}

// GetLatestRecordForTarget returns the most recent install record for a target
func (s *State) GetLatestRecordForTarget(target platform.Target) *InstallRecord {
	var latest *InstallRecord
	for _, r := range s.History {
		if r.Target == target.String() {
			if latest == nil || r.StartedAt.After(latest.StartedAt) {
				latest = r
			}
		}
	}
	return latest
}

// clone returns a copy that can be changed without affecting s. Records
// and installations are shared; they are never modified after being
// stored.
func (s *State) clone() *State {
	c := *s
	c.Installs = make(map[string]*Installation, len(s.Installs))
	for k, v := range s.Installs {
		c.Installs[k] = v
	}
	c.History = append([]*InstallRecord(nil), s.History...)
	return &c
}

// withInstallation returns a copy of s with the marker for target replaced
func (s *State) withInstallation(target platform.Target, inst *Installation) *State {
	c := s.clone()
	c.Installs[target.String()] = inst
	return c
}

// withRecord returns a copy of s with record appended to the history
func (s *State) withRecord(record *InstallRecord) *State {
	c := s.clone()
	c.AddInstallRecord(record)
	return c
}
