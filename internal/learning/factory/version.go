package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Version is a frozen strategy snapshot. At most one version is active at
// a time; the active one drives the production config.
type Version struct {
	ID           string    `json:"version_id"`
	CreatedAt    time.Time `json:"created_at"`
	RulesCount   int       `json:"rules_count"`
	WinRate      float64   `json:"win_rate"`
	ProfitFactor float64   `json:"profit_factor"`
	IsActive     bool      `json:"is_active"`
	Seed         int64     `json:"seed"`
	Notes        string    `json:"notes,omitempty"`
}

type versionDocument struct {
	Versions  []Version `json:"versions"`
	CurrentID string    `json:"current_id"`
}

// VersionStore persists the version history as a single JSON document.
// Writes go through a temp file and rename, so a failed save leaves the
// previous history observable.
type VersionStore struct {
	path string
	doc  versionDocument
}

// OpenVersionStore loads the history at path, starting empty when the
// file does not exist yet.
func OpenVersionStore(path string) (*VersionStore, error) {
	s := &VersionStore{path: path}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read version store: %w", err)
	}
	if err := json.Unmarshal(raw, &s.doc); err != nil {
		return nil, fmt.Errorf("failed to parse version store: %w", err)
	}
	return s, nil
}

// Versions returns the full history, oldest first.
func (s *VersionStore) Versions() []Version {
	return s.doc.Versions
}

// Active returns the currently deployed version, if any.
func (s *VersionStore) Active() (Version, bool) {
	for _, v := range s.doc.Versions {
		if v.IsActive {
			return v, true
		}
	}
	return Version{}, false
}

// NextID derives the next version id, v{n}.0_YYYYMMDD.
func (s *VersionStore) NextID(now time.Time) string {
	return fmt.Sprintf("v%d.0_%s", len(s.doc.Versions)+1, now.UTC().Format("20060102"))
}

// Deploy commits the new version as active in one save: the previous
// active version is deactivated and the document written atomically.
func (s *VersionStore) Deploy(v Version) error {
	prev := s.doc
	for i := range s.doc.Versions {
		s.doc.Versions[i].IsActive = false
	}
	v.IsActive = true
	s.doc.Versions = append(s.doc.Versions, v)
	s.doc.CurrentID = v.ID

	if err := s.save(); err != nil {
		s.doc = prev
		return err
	}
	return nil
}

// Record appends a version without activating it.
func (s *VersionStore) Record(v Version) error {
	prev := s.doc
	v.IsActive = false
	s.doc.Versions = append(s.doc.Versions, v)

	if err := s.save(); err != nil {
		s.doc = prev
		return err
	}
	return nil
}

func (s *VersionStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create version directory: %w", err)
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode versions: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write versions: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to commit versions: %w", err)
	}
	return nil
}
