// Package daemon provides the long-running background reconciliation service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	stdsync "sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/history"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/state"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/sync"
)

// Syncer runs one reconciliation pass.
type Syncer interface {
	Run(ctx context.Context) (*sync.Summary, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Snapshot is a compact tracker state for status/event payloads.
type Snapshot struct {
	At            time.Time       `json:"at"`
	Tracked       int             `json:"tracked"`
	RollupMembers int             `json:"rollup_members"`
	Notices       int             `json:"notices"`
	TotalMonthly  decimal.Decimal `json:"total_monthly"`
	LastSyncAt    time.Time       `json:"last_sync_at"`
}

// Delta captures snapshot deltas between syncs.
type Delta struct {
	Tracked       int             `json:"tracked"`
	RollupMembers int             `json:"rollup_members"`
	Notices       int             `json:"notices"`
	TotalMonthly  decimal.Decimal `json:"total_monthly"`
}

func (d Delta) isZero() bool {
	return d.Tracked == 0 &&
		d.RollupMembers == 0 &&
		d.Notices == 0 &&
		d.TotalMonthly.IsZero()
}

// Event is emitted whenever the tracker snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastSyncAttempt time.Time `json:"last_sync_attempt"`
	SyncIntervalSec int       `json:"sync_interval_sec"`
	SyncCount       int64     `json:"sync_count"`
	SkippedCount    int64     `json:"skipped_count"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	syncer Syncer
	store  *state.Store
	hist   *history.Store

	mu           stdsync.RWMutex
	startedAt    time.Time
	lastAttempt  time.Time
	syncCount    int64
	skippedCount int64
	lastError    string
	hasSnapshot  bool
	snapshot     Snapshot
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service. hist may be nil to disable run recording.
func New(cfg Config, syncer Syncer, store *state.Store, hist *history.Store) *Service {
	if cfg.Interval < time.Minute {
		cfg.Interval = time.Hour
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	return &Service{
		cfg:       cfg,
		syncer:    syncer,
		store:     store,
		hist:      hist,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and periodic syncing until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial sync so status is useful immediately.
	s.syncOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.syncOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) syncOnce(ctx context.Context) {
	now := time.Now()
	summary, err := s.syncer.Run(ctx)

	var cooldown *sync.CooldownError
	switch {
	case errors.As(err, &cooldown):
		// A recent sync already covered this tick.
		s.mu.Lock()
		s.lastAttempt = now
		s.skippedCount++
		s.lastError = ""
		s.mu.Unlock()
		return
	case err != nil:
		s.mu.Lock()
		s.lastAttempt = now
		s.syncCount++
		s.lastError = err.Error()
		s.mu.Unlock()
		log.Printf("eclosion daemon sync error: %v", err)
		return
	}

	if s.hist != nil {
		if herr := s.hist.Append(historyEntry(summary)); herr != nil {
			log.Printf("eclosion daemon: recording history: %v", herr)
		}
	}

	st, loadErr := s.store.Load()
	if loadErr != nil {
		s.mu.Lock()
		s.lastAttempt = now
		s.syncCount++
		s.lastError = loadErr.Error()
		s.mu.Unlock()
		return
	}
	snap := snapshotFromState(st, summary, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastAttempt = now
	s.syncCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
			Delta:     Delta{},
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "tracker_delta",
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func historyEntry(sum *sync.Summary) history.Entry {
	var msgs []string
	for _, ie := range sum.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", ie.Name, ie.Message))
	}
	return history.Entry{
		SyncTime:       sum.SyncTime,
		Created:        len(sum.Created),
		Updated:        len(sum.Updated),
		Deactivated:    len(sum.Deactivated),
		Errors:         len(sum.Errors),
		RecurringCount: sum.RecurringCount,
		TotalMonthly:   sum.TotalMonthly,
		ErrorDetail:    history.JoinErrorDetail(msgs),
	}
}

func snapshotFromState(st *model.TrackerState, sum *sync.Summary, at time.Time) Snapshot {
	tracked := 0
	for _, ob := range st.Obligations {
		if ob.Active {
			tracked++
		}
	}
	return Snapshot{
		At:            at,
		Tracked:       tracked,
		RollupMembers: len(st.Rollup.Members),
		Notices:       len(st.ActiveNotices()),
		TotalMonthly:  sum.TotalMonthly,
		LastSyncAt:    st.LastSyncAt,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Tracked:       curr.Tracked - prev.Tracked,
		RollupMembers: curr.RollupMembers - prev.RollupMembers,
		Notices:       curr.Notices - prev.Notices,
		TotalMonthly:  curr.TotalMonthly.Sub(prev.TotalMonthly),
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastSyncAttempt: s.lastAttempt,
		SyncIntervalSec: int(s.cfg.Interval.Seconds()),
		SyncCount:       s.syncCount,
		SkippedCount:    s.skippedCount,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
