package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/state"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/sync"
)

type fakeSyncer struct {
	summary *sync.Summary
	err     error
	runs    int
}

func (f *fakeSyncer) Run(_ context.Context) (*sync.Summary, error) {
	f.runs++
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func newTestService(t *testing.T, syncer Syncer) *Service {
	t.Helper()
	store := state.NewStore(filepath.Join(t.TempDir(), "state.json"))
	return New(Config{Interval: time.Hour, EventsBuffer: 2}, syncer, store, nil)
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Tracked:       4,
		RollupMembers: 2,
		Notices:       0,
		TotalMonthly:  decimal.NewFromInt(120),
	}
	curr := Snapshot{
		Tracked:       6,
		RollupMembers: 3,
		Notices:       1,
		TotalMonthly:  decimal.NewFromInt(150),
	}

	delta := diffSnapshots(prev, curr)
	if delta.Tracked != 2 {
		t.Fatalf("Tracked delta = %d, want 2", delta.Tracked)
	}
	if delta.RollupMembers != 1 {
		t.Fatalf("RollupMembers delta = %d, want 1", delta.RollupMembers)
	}
	if delta.Notices != 1 {
		t.Fatalf("Notices delta = %d, want 1", delta.Notices)
	}
	if !delta.TotalMonthly.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("TotalMonthly delta = %s, want 30", delta.TotalMonthly)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := newTestService(t, &fakeSyncer{})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestSyncOnceRecordsSnapshot(t *testing.T) {
	syncer := &fakeSyncer{summary: &sync.Summary{
		TotalMonthly: decimal.NewFromInt(45),
		SyncTime:     time.Now(),
	}}
	s := newTestService(t, syncer)

	s.syncOnce(context.Background())

	status := s.snapshotStatus()
	if status.SyncCount != 1 {
		t.Fatalf("SyncCount = %d, want 1", status.SyncCount)
	}
	if status.LastError != "" {
		t.Fatalf("LastError = %q, want empty", status.LastError)
	}
	if !status.Summary.TotalMonthly.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("TotalMonthly = %s, want 45", status.Summary.TotalMonthly)
	}
	if status.EventCount != 1 {
		t.Fatalf("EventCount = %d, want 1", status.EventCount)
	}
}

func TestSyncOnceCooldownSkipsTick(t *testing.T) {
	syncer := &fakeSyncer{err: &sync.CooldownError{Remaining: 30 * time.Second}}
	s := newTestService(t, syncer)

	s.syncOnce(context.Background())

	status := s.snapshotStatus()
	if status.SyncCount != 0 {
		t.Fatalf("SyncCount = %d, want 0", status.SyncCount)
	}
	if status.SkippedCount != 1 {
		t.Fatalf("SkippedCount = %d, want 1", status.SkippedCount)
	}
	if status.LastError != "" {
		t.Fatalf("cooldown should not surface as error, got %q", status.LastError)
	}
	if status.EventCount != 0 {
		t.Fatalf("EventCount = %d, want 0", status.EventCount)
	}
}

func TestSyncOnceRecordsError(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("upstream unreachable")}
	s := newTestService(t, syncer)

	s.syncOnce(context.Background())

	status := s.snapshotStatus()
	if status.SyncCount != 1 {
		t.Fatalf("SyncCount = %d, want 1", status.SyncCount)
	}
	if status.LastError != "upstream unreachable" {
		t.Fatalf("LastError = %q", status.LastError)
	}
}

func TestSyncOnceNoDuplicateEventWhenUnchanged(t *testing.T) {
	syncer := &fakeSyncer{summary: &sync.Summary{SyncTime: time.Now()}}
	s := newTestService(t, syncer)

	s.syncOnce(context.Background())
	s.syncOnce(context.Background())

	status := s.snapshotStatus()
	if status.SyncCount != 2 {
		t.Fatalf("SyncCount = %d, want 2", status.SyncCount)
	}
	if status.EventCount != 1 {
		t.Fatalf("EventCount = %d, want 1 (unchanged state publishes no delta)", status.EventCount)
	}
}
