// Package state persists the tracker state file. Saves are atomic (temp
// file, fsync, rename in the same directory) and corrupt files are
// quarantined rather than deleted, so a crash or bad write never loses the
// user's tracking data.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
)

// Store reads and writes the tracker state file. It is the only component
// allowed to touch the file; everything else goes through Load/Save or a
// Scope.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store for the given state file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted state, a fresh default if the file does not
// exist, or — after quarantining the corrupt file — a fresh default if the
// file cannot be parsed.
func (s *Store) Load() (*model.TrackerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (*model.TrackerState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewTrackerState(), nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	st := model.NewTrackerState()
	if err := json.Unmarshal(data, st); err != nil {
		quarantined := s.quarantine()
		log.Printf("state file unreadable (%v), moved aside to %s", err, quarantined)
		return model.NewTrackerState(), nil
	}

	migrate(st)
	return st, nil
}

// quarantine renames the unparseable state file aside for forensic
// recovery. Returns the new path, or the original on rename failure.
func (s *Store) quarantine() string {
	aside := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().UTC().Format("20060102T150405Z"))
	if err := os.Rename(s.path, aside); err != nil {
		return s.path
	}
	return aside
}

// Save atomically replaces the state file. The payload is fully written and
// synced to a temp file in the same directory before a single rename, so a
// crash mid-write never truncates the primary file.
func (s *Store) Save(st *model.TrackerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(st)
}

func (s *Store) saveLocked(st *model.TrackerState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("syncing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// migrate upgrades older schemas in place. Version 1 predates preferences
// and the channel tag.
func migrate(st *model.TrackerState) {
	if st.SchemaVersion >= model.SchemaVersion {
		return
	}
	if st.SchemaVersion < 2 {
		if st.Channel == "" {
			st.Channel = "stable"
		}
		st.Preferences.AutoUpdateTargets = true
	}
	st.SchemaVersion = model.SchemaVersion
	if st.Obligations == nil {
		st.Obligations = make(map[string]*model.Obligation)
	}
	if st.Rollup.FrozenTargets == nil {
		st.Rollup.FrozenTargets = make(map[string]model.FrozenTarget)
	}
}
