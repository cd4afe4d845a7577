// Package sync implements the reconciliation loop that keeps tracked
// obligations aligned with the upstream recurring list: create, rename,
// deactivate, push monthly contributions, and emit removal notices.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/frozen"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/monarch"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/projection"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/rollup"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/state"
)

// Provider is the upstream collaborator surface the engine needs. All calls
// are network operations; the monarch client retries transient failures at
// this boundary, so the engine itself never retries.
type Provider interface {
	Recurring(ctx context.Context) ([]monarch.RecurringItem, error)
	Categories(ctx context.Context) ([]monarch.Category, error)
	CreateCategory(ctx context.Context, group, name, icon string) (string, error)
	RenameCategory(ctx context.Context, id, name, icon string) error
	DeleteCategory(ctx context.Context, id string) error
	SetBudget(ctx context.Context, categoryID string, month time.Time, amount decimal.Decimal) error
	CategoryBalance(ctx context.Context, categoryID string) (decimal.Decimal, error)
}

// DefaultCooldown is the minimum spacing between reconciliation passes. It
// is enforced from the persisted last-sync timestamp, so it holds across
// process restarts and is the sole guard against overlapping runs.
const DefaultCooldown = 60 * time.Second

// defaultCategoryGroup is the budget group new categories are created in.
const defaultCategoryGroup = "Subscriptions"

// rollupItemID tags rollup-level failures in the per-item error list.
const rollupItemID = "rollup"

// Validation errors, surfaced before any mutation.
var (
	ErrNotTracked     = errors.New("obligation is not tracked")
	ErrAlreadyTracked = errors.New("obligation is already tracked")
	ErrNotUpstream    = errors.New("obligation not found in upstream recurring list")
	ErrInvalidAmount  = errors.New("obligation amount must be positive")
	ErrNoSuchCategory = errors.New("category not found")
)

// CooldownError is the typed, expected condition for a run attempted inside
// the cooldown window. Callers must not retry before Remaining elapses.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("sync cooldown active, retry in %s", e.Remaining.Round(time.Second))
}

// ItemError records one obligation's failure within an otherwise
// successful pass.
type ItemError struct {
	ObligationID string `json:"obligation_id"`
	Name         string `json:"name"`
	Message      string `json:"message"`
}

// Summary is the structured result of one reconciliation pass. A pass that
// completed its traversal is successful even with per-item errors.
type Summary struct {
	Created        []string              `json:"created"`
	Updated        []string              `json:"updated"`
	Deactivated    []string              `json:"deactivated"`
	Errors         []ItemError           `json:"errors"`
	TotalMonthly   decimal.Decimal       `json:"total_monthly"`
	RemovedNotices []model.RemovalNotice `json:"removed_notices"`
	RecurringCount int                   `json:"recurring_count"`
	SyncTime       time.Time             `json:"sync_time"`
}

// Engine orchestrates reconciliation passes and single-item operations.
type Engine struct {
	provider Provider
	store    *state.Store
	group    string
	cooldown time.Duration
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCooldown overrides the run cooldown.
func WithCooldown(d time.Duration) Option {
	return func(e *Engine) { e.cooldown = d }
}

// WithCategoryGroup sets the budget group new categories are created in.
func WithCategoryGroup(group string) Option {
	return func(e *Engine) {
		if group != "" {
			e.group = group
		}
	}
}

// New returns a reconciliation engine over the given provider and store.
func New(provider Provider, store *state.Store, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		store:    store,
		group:    defaultCategoryGroup,
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one reconciliation pass: cooldown check, upstream fetch,
// per-item processing with error collection, removed-item handling, and
// finalize. Re-running against an unchanged upstream list is a no-op.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	now := e.now()

	scope, err := e.store.Begin()
	if err != nil {
		return nil, err
	}
	st := scope.State()

	if !st.LastSyncAt.IsZero() {
		if since := now.Sub(st.LastSyncAt); since < e.cooldown {
			return nil, &CooldownError{Remaining: e.cooldown - since}
		}
	}

	items, err := e.provider.Recurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching recurring list: %w", err)
	}
	cats, err := e.provider.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}

	upstream := make(map[string]monarch.RecurringItem)
	for _, it := range items {
		if it.Active {
			upstream[it.ID] = it
		}
	}
	liveCategories := make(map[string]monarch.Category, len(cats))
	for _, c := range cats {
		liveCategories[c.ID] = c
	}

	summary := &Summary{SyncTime: now, RecurringCount: len(upstream)}
	e.autoTrackNew(st, upstream)

	month := frozen.MonthOf(now)
	fz := frozen.NewEngine(st)

	for _, id := range sortedIDs(st.Obligations) {
		ob := st.Obligations[id]
		item, live := upstream[id]
		if !live {
			continue // removed-item handling runs after the loop
		}
		if st.Rollup.Enabled && st.Rollup.HasMember(id) {
			continue // funded through the rollup pass
		}
		if err := e.processItem(ctx, st, fz, ob, item, liveCategories, month, now, summary); err != nil {
			summary.Errors = append(summary.Errors, ItemError{
				ObligationID: id,
				Name:         ob.Name,
				Message:      err.Error(),
			})
		}
	}

	if st.Rollup.Enabled && len(st.Rollup.Members) > 0 {
		if err := e.processRollup(ctx, st, fz, upstream, liveCategories, month, now, summary); err != nil {
			summary.Errors = append(summary.Errors, ItemError{
				ObligationID: rollupItemID,
				Name:         st.Rollup.Name,
				Message:      err.Error(),
			})
		}
	}

	e.handleRemoved(st, upstream, liveCategories, now, summary)

	st.LastSyncAt = now
	scope.MarkDirty()
	if err := scope.Commit(); err != nil {
		return nil, fmt.Errorf("persisting state: %w", err)
	}
	return summary, nil
}

// autoTrackNew enables upstream obligations the user has not tracked yet,
// when the auto-sync preference is on and the amount clears the threshold.
func (e *Engine) autoTrackNew(st *model.TrackerState, upstream map[string]monarch.RecurringItem) {
	if !st.Preferences.AutoSyncNew {
		return
	}
	for id, item := range upstream {
		if _, tracked := st.Obligations[id]; tracked {
			continue
		}
		if item.Amount.LessThan(st.Preferences.AutoTrackThreshold) {
			continue
		}
		st.Obligations[id] = &model.Obligation{
			ID:       id,
			Name:     item.Name,
			Amount:   item.Amount,
			Active:   true,
			SyncName: true,
		}
	}
}

// processItem reconciles one standalone obligation: resolve or (re)create
// its category, freeze and push this month's contribution, and refresh the
// persisted record.
func (e *Engine) processItem(ctx context.Context, st *model.TrackerState, fz *frozen.Engine,
	ob *model.Obligation, item monarch.RecurringItem, liveCategories map[string]monarch.Category,
	month string, now time.Time, summary *Summary) error {

	amount := item.Amount
	if !st.Preferences.AutoUpdateTargets && ob.Amount.IsPositive() {
		amount = ob.Amount
	}
	freq := model.FrequencyMonths(item.Frequency)
	months := monthsUntilDue(item.NextDueDate, now)

	// The local name is updated only after the upstream rename lands, so a
	// failed rename is retried on the next pass.
	name := ob.Name
	if ob.SyncName {
		name = item.Name
	}

	var created bool
	if _, alive := liveCategories[ob.CategoryID]; ob.CategoryID == "" || !alive {
		// Untracked, or the previously linked category was deleted upstream.
		id, err := e.provider.CreateCategory(ctx, e.group, name, ob.Icon)
		if err != nil {
			return fmt.Errorf("creating category: %w", err)
		}
		ob.CategoryID = id
		ob.Name = name
		ob.Linked = false
		created = true
		liveCategories[id] = monarch.Category{ID: id, Name: name, Icon: ob.Icon}
	} else if name != ob.Name {
		if err := e.provider.RenameCategory(ctx, ob.CategoryID, name, ob.Icon); err != nil {
			return fmt.Errorf("renaming category: %w", err)
		}
		ob.Name = name
	}

	balance, err := e.provider.CategoryBalance(ctx, ob.CategoryID)
	if err != nil {
		return fmt.Errorf("reading balance: %w", err)
	}

	ideal := projection.IdealMonthlyRate(amount, freq)
	fr := fz.GetOrCompute(ob.ID, amount, freq, months, balance, ideal, month)

	if err := e.provider.SetBudget(ctx, ob.CategoryID, now, fr.Target); err != nil {
		return fmt.Errorf("pushing budget: %w", err)
	}

	// over_contribution is informational: persisted for display, never fed
	// back into the next pass's projection.
	proj := projection.Project(projection.Input{
		TargetAmount:    amount,
		CurrentBalance:  balance,
		MonthsUntilDue:  months,
		FrequencyMonths: freq,
	})
	ob.OverContribution = proj.OverContribution
	ob.Amount = amount
	ob.PreviousDueDate = item.NextDueDate
	ob.Active = true

	summary.TotalMonthly = summary.TotalMonthly.Add(fr.Target)
	if created {
		summary.Created = append(summary.Created, ob.ID)
	} else {
		summary.Updated = append(summary.Updated, ob.ID)
	}
	return nil
}

// processRollup reconciles the shared bucket: resolve or (re)create its
// category, aggregate members over the shared balance, and push one budget
// line for the whole group.
func (e *Engine) processRollup(ctx context.Context, st *model.TrackerState, fz *frozen.Engine,
	upstream map[string]monarch.RecurringItem, liveCategories map[string]monarch.Category,
	month string, now time.Time, summary *Summary) error {

	r := &st.Rollup
	if _, alive := liveCategories[r.CategoryID]; r.CategoryID == "" || !alive {
		id, err := e.provider.CreateCategory(ctx, e.group, r.Name, r.Icon)
		if err != nil {
			return fmt.Errorf("creating rollup category: %w", err)
		}
		r.CategoryID = id
		r.Linked = false
		liveCategories[id] = monarch.Category{ID: id, Name: r.Name, Icon: r.Icon}
	}

	balance, err := e.provider.CategoryBalance(ctx, r.CategoryID)
	if err != nil {
		return fmt.Errorf("reading rollup balance: %w", err)
	}

	var members []rollup.Member
	for _, id := range r.Members {
		item, live := upstream[id]
		if !live {
			continue
		}
		members = append(members, rollup.Member{
			ID:              id,
			Name:            item.Name,
			Amount:          item.Amount,
			FrequencyMonths: model.FrequencyMonths(item.Frequency),
			MonthsUntilDue:  monthsUntilDue(item.NextDueDate, now),
		})
	}
	if len(members) == 0 {
		return nil
	}

	agg := rollup.New(fz).Aggregate(members, balance, month)

	push := agg.TotalFrozenMonthly
	if r.BudgetedAmount.IsPositive() {
		push = r.BudgetedAmount
	}
	if err := e.provider.SetBudget(ctx, r.CategoryID, now, push); err != nil {
		return fmt.Errorf("pushing rollup budget: %w", err)
	}

	summary.TotalMonthly = summary.TotalMonthly.Add(push)
	summary.Updated = append(summary.Updated, rollupItemID)
	return nil
}

// handleRemoved deactivates tracked obligations that vanished from the
// upstream list. Each disappearance produces exactly one removal notice:
// the obligation leaves the tracking map, so a replayed pass is a no-op.
func (e *Engine) handleRemoved(st *model.TrackerState, upstream map[string]monarch.RecurringItem,
	liveCategories map[string]monarch.Category, now time.Time, summary *Summary) {

	for _, id := range sortedIDs(st.Obligations) {
		if _, live := upstream[id]; live {
			continue
		}
		ob := st.Obligations[id]
		if !ob.Active {
			continue
		}

		wasRollup := st.Rollup.HasMember(id)
		st.Rollup.RemoveMember(id)
		ob.Active = false

		categoryName := ""
		if cat, ok := liveCategories[ob.CategoryID]; ok {
			categoryName = cat.Name
		}
		notice := model.NewRemovalNotice(ob, categoryName, wasRollup, now)
		st.Notices = append(st.Notices, notice)
		delete(st.Obligations, id)

		summary.Deactivated = append(summary.Deactivated, id)
		summary.RemovedNotices = append(summary.RemovedNotices, notice)
	}
}

// monthsUntilDue is the whole-month distance from now to the due date,
// floored at zero. An unparseable or missing date counts as due next month.
func monthsUntilDue(dueDate string, now time.Time) int {
	due, err := time.Parse("2006-01-02", dueDate)
	if err != nil {
		return 1
	}
	months := (due.Year()-now.Year())*12 + int(due.Month()) - int(now.Month())
	if months < 0 {
		return 0
	}
	return months
}

func sortedIDs(m map[string]*model.Obligation) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
