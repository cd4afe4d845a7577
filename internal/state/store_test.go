package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "state.json"))
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	s := tempStore(t)

	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, model.SchemaVersion, st.SchemaVersion)
	assert.Empty(t, st.Obligations)
	assert.False(t, st.Rollup.Enabled)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)

	st := model.NewTrackerState()
	st.Obligations["rec-1"] = &model.Obligation{
		ID:         "rec-1",
		CategoryID: "cat-9",
		Name:       "Netflix",
		Amount:     decimal.RequireFromString("15.99"),
		Active:     true,
		SyncName:   true,
		Frozen: model.FrozenTarget{
			MonthlyTarget:   decimal.RequireFromString("16"),
			TargetMonth:     "2026-09",
			Amount:          decimal.RequireFromString("15.99"),
			FrequencyMonths: 1,
		},
	}
	st.Rollup.Enabled = true
	st.Rollup.Members = []string{"rec-2"}
	st.LastSyncAt = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(st))

	got, err := s.Load()
	require.NoError(t, err)

	ob := got.Obligations["rec-1"]
	require.NotNil(t, ob)
	assert.Equal(t, "Netflix", ob.Name)
	assert.True(t, ob.Amount.Equal(decimal.RequireFromString("15.99")))
	assert.Equal(t, "2026-09", ob.Frozen.TargetMonth)
	assert.Equal(t, []string{"rec-2"}, got.Rollup.Members)
	assert.True(t, got.LastSyncAt.Equal(st.LastSyncAt))
}

func TestUnknownFieldsRoundTrip(t *testing.T) {
	s := tempStore(t)

	// A newer schema wrote fields this version knows nothing about.
	payload := `{
		"schema_version": 2,
		"obligations": {},
		"rollup": {"enabled": false, "name": "", "member_ids": null, "budgeted_amount": "0", "is_linked": false},
		"removal_notices": null,
		"last_sync_at": "2026-09-01T00:00:00Z",
		"preferences": {"auto_sync_new": false, "auto_track_threshold": "0", "auto_update_targets": true},
		"future_feature": {"nested": [1, 2, 3], "flag": true},
		"another_unknown": "keep-me"
	}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(payload), 0o600))

	st, err := s.Load()
	require.NoError(t, err)
	require.Contains(t, st.Extra, "future_feature")
	require.Contains(t, st.Extra, "another_unknown")

	require.NoError(t, s.Save(st))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	assert.JSONEq(t, `{"nested": [1, 2, 3], "flag": true}`, string(out["future_feature"]))
	assert.Equal(t, `"keep-me"`, string(out["another_unknown"]))
}

func TestCorruptFileQuarantined(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))

	st, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, st.Obligations)

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)

	var quarantined bool
	for _, e := range entries {
		if strings.Contains(e.Name(), ".corrupt-") {
			quarantined = true
		}
	}
	assert.True(t, quarantined, "corrupt file was not moved aside")

	// The primary path is gone until the next save.
	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save(model.NewTrackerState()))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, ".tmp", filepath.Ext(e.Name()), "leftover temp file %s", e.Name())
	}
}

func TestMigrateV1State(t *testing.T) {
	s := tempStore(t)
	payload := `{"schema_version": 1, "obligations": null}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(payload), 0o600))

	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, model.SchemaVersion, st.SchemaVersion)
	assert.Equal(t, "stable", st.Channel)
	assert.True(t, st.Preferences.AutoUpdateTargets)
	assert.NotNil(t, st.Obligations)
}

func TestScopeSingleLoadSingleSave(t *testing.T) {
	s := tempStore(t)

	sc, err := s.Begin()
	require.NoError(t, err)

	sc.State().Obligations["x"] = &model.Obligation{ID: "x", Name: "Gym"}
	sc.MarkDirty()
	require.NoError(t, sc.Commit())

	got, err := s.Load()
	require.NoError(t, err)
	assert.Contains(t, got.Obligations, "x")
}

func TestScopeCleanCommitWritesNothing(t *testing.T) {
	s := tempStore(t)

	sc, err := s.Begin()
	require.NoError(t, err)
	require.NoError(t, sc.Commit())

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr), "clean scope should not create the state file")
}
