package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SchemaVersion is the current tracker state schema.
const SchemaVersion = 2

// Preferences holds the user's sync behavior settings.
type Preferences struct {
	AutoSyncNew        bool            `json:"auto_sync_new"`
	AutoTrackThreshold decimal.Decimal `json:"auto_track_threshold"`
	AutoUpdateTargets  bool            `json:"auto_update_targets"`
}

// TrackerState is the aggregate root persisted to the state file. Top-level
// fields written by a newer schema are kept in Extra and re-emitted verbatim
// on every save, so an older reader never drops them.
type TrackerState struct {
	SchemaVersion int                    `json:"schema_version"`
	Channel       string                 `json:"channel,omitempty"`
	Obligations   map[string]*Obligation `json:"obligations"`
	Rollup        Rollup                 `json:"rollup"`
	Notices       []RemovalNotice        `json:"removal_notices"`
	LastSyncAt    time.Time              `json:"last_sync_at"`
	Preferences   Preferences            `json:"preferences"`

	Extra map[string]json.RawMessage `json:"-"`
}

// NewTrackerState returns a fresh default state.
func NewTrackerState() *TrackerState {
	return &TrackerState{
		SchemaVersion: SchemaVersion,
		Channel:       "stable",
		Obligations:   make(map[string]*Obligation),
		Rollup: Rollup{
			Name:          "Subscription Rollup",
			FrozenTargets: make(map[string]FrozenTarget),
		},
		Preferences: Preferences{
			AutoUpdateTargets: true,
		},
	}
}

// knownStateFields are the top-level keys this schema owns. Anything else
// found on load is round-tripped through Extra.
var knownStateFields = []string{
	"schema_version",
	"channel",
	"obligations",
	"rollup",
	"removal_notices",
	"last_sync_at",
	"preferences",
}

type trackerStateAlias TrackerState

// UnmarshalJSON decodes known fields and captures unrecognized top-level
// fields verbatim.
func (s *TrackerState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var a trackerStateAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = TrackerState(a)

	for _, k := range knownStateFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}

// MarshalJSON re-emits captured unknown fields alongside the known schema.
func (s TrackerState) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(trackerStateAlias(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range s.Extra {
		if _, owned := merged[k]; !owned {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// FrozenTargetRecord returns the stored freeze for a storage key. Standalone
// obligations store the record inline; rollup members store it under a
// derived key so the two never collide.
func (s *TrackerState) FrozenTargetRecord(key string) (FrozenTarget, bool) {
	if memberID, ok := rollupMemberID(key); ok {
		ft, ok := s.Rollup.FrozenTargets[RollupTargetKey(memberID)]
		return ft, ok && !ft.IsZero()
	}
	ob, ok := s.Obligations[key]
	if !ok || ob.Frozen.IsZero() {
		return FrozenTarget{}, false
	}
	return ob.Frozen, true
}

// SetFrozenTargetRecord stores a freeze under its storage key. Writes to
// unknown standalone obligations are dropped.
func (s *TrackerState) SetFrozenTargetRecord(key string, ft FrozenTarget) {
	if memberID, ok := rollupMemberID(key); ok {
		if s.Rollup.FrozenTargets == nil {
			s.Rollup.FrozenTargets = make(map[string]FrozenTarget)
		}
		s.Rollup.FrozenTargets[RollupTargetKey(memberID)] = ft
		return
	}
	if ob, ok := s.Obligations[key]; ok {
		ob.Frozen = ft
	}
}

func rollupMemberID(key string) (string, bool) {
	if len(key) > len(RollupKeyPrefix) && key[:len(RollupKeyPrefix)] == RollupKeyPrefix {
		return key[len(RollupKeyPrefix):], true
	}
	return "", false
}

// ActiveNotices returns undismissed removal notices.
func (s *TrackerState) ActiveNotices() []RemovalNotice {
	var out []RemovalNotice
	for _, n := range s.Notices {
		if !n.Dismissed {
			out = append(out, n)
		}
	}
	return out
}

// DismissNotice flips the dismissed flag for a notice ID. Returns false if
// no such notice exists.
func (s *TrackerState) DismissNotice(id string) bool {
	for i := range s.Notices {
		if s.Notices[i].ID == id {
			s.Notices[i].Dismissed = true
			return true
		}
	}
	return false
}
