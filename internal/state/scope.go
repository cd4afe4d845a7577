package state

import (
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
)

// Scope collapses state access within one logical unit of work to a single
// load and, if anything changed, a single save. Callers mutate the
// in-memory state and call Commit on the way out.
type Scope struct {
	store *Store
	st    *model.TrackerState
	dirty bool
}

// Begin loads the state once and returns a scope over it.
func (s *Store) Begin() (*Scope, error) {
	st, err := s.Load()
	if err != nil {
		return nil, err
	}
	return &Scope{store: s, st: st}, nil
}

// State returns the scoped in-memory state. Mutations are not persisted
// until Commit.
func (sc *Scope) State() *model.TrackerState {
	return sc.st
}

// MarkDirty flags the scope so Commit writes the state back.
func (sc *Scope) MarkDirty() {
	sc.dirty = true
}

// Commit saves the state if it was marked dirty. Safe to call at the end
// of the unit of work regardless of outcome.
func (sc *Scope) Commit() error {
	if !sc.dirty {
		return nil
	}
	sc.dirty = false
	return sc.store.Save(sc.st)
}
