package sync

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/frozen"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/projection"
)

// Enable starts tracking an upstream obligation. With linkCategoryID set,
// the obligation is bound to that pre-existing category; otherwise a new
// category is created. The first month's contribution is pushed right away.
func (e *Engine) Enable(ctx context.Context, recurringID, linkCategoryID string) error {
	scope, err := e.store.Begin()
	if err != nil {
		return err
	}
	st := scope.State()

	if _, tracked := st.Obligations[recurringID]; tracked {
		return fmt.Errorf("%s: %w", recurringID, ErrAlreadyTracked)
	}

	items, err := e.provider.Recurring(ctx)
	if err != nil {
		return fmt.Errorf("fetching recurring list: %w", err)
	}
	var item *model.Obligation
	var freq float64
	var months int
	now := e.now()
	for _, it := range items {
		if it.ID != recurringID || !it.Active {
			continue
		}
		if !it.Amount.IsPositive() {
			return fmt.Errorf("%s: %w", recurringID, ErrInvalidAmount)
		}
		freq = model.FrequencyMonths(it.Frequency)
		months = monthsUntilDue(it.NextDueDate, now)
		item = &model.Obligation{
			ID:              it.ID,
			Name:            it.Name,
			Amount:          it.Amount,
			Active:          true,
			SyncName:        true,
			PreviousDueDate: it.NextDueDate,
		}
		break
	}
	if item == nil {
		return fmt.Errorf("%s: %w", recurringID, ErrNotUpstream)
	}

	if linkCategoryID != "" {
		cats, err := e.provider.Categories(ctx)
		if err != nil {
			return fmt.Errorf("fetching categories: %w", err)
		}
		var found bool
		for _, c := range cats {
			if c.ID == linkCategoryID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: %w", linkCategoryID, ErrNoSuchCategory)
		}
		item.CategoryID = linkCategoryID
		item.Linked = true
	} else {
		id, err := e.provider.CreateCategory(ctx, e.group, item.Name, item.Icon)
		if err != nil {
			return fmt.Errorf("creating category: %w", err)
		}
		item.CategoryID = id
	}

	st.Obligations[item.ID] = item
	scope.MarkDirty()

	// Tracking is committed even when the first push fails, so the next
	// sync pass can retry the budget.
	balance, err := e.provider.CategoryBalance(ctx, item.CategoryID)
	if err != nil {
		if cerr := scope.Commit(); cerr != nil {
			return cerr
		}
		return fmt.Errorf("reading balance, first budget push deferred to next sync: %w", err)
	}
	ideal := projection.IdealMonthlyRate(item.Amount, freq)
	fr := frozen.NewEngine(st).GetOrCompute(item.ID, item.Amount, freq, months,
		balance, ideal, frozen.MonthOf(now))
	if err := e.provider.SetBudget(ctx, item.CategoryID, now, fr.Target); err != nil {
		if cerr := scope.Commit(); cerr != nil {
			return cerr
		}
		return fmt.Errorf("pushing initial budget, deferred to next sync: %w", err)
	}

	return scope.Commit()
}

// Disable stops tracking an obligation. A category this tracker created is
// deleted; a linked category is kept with its budget zeroed.
func (e *Engine) Disable(ctx context.Context, recurringID string) error {
	scope, err := e.store.Begin()
	if err != nil {
		return err
	}
	st := scope.State()

	ob, tracked := st.Obligations[recurringID]
	if !tracked {
		return fmt.Errorf("%s: %w", recurringID, ErrNotTracked)
	}

	st.Rollup.RemoveMember(recurringID)

	if ob.CategoryID != "" {
		if ob.Linked {
			if err := e.provider.SetBudget(ctx, ob.CategoryID, e.now(), decimal.Zero); err != nil {
				return fmt.Errorf("zeroing budget: %w", err)
			}
		} else {
			if err := e.provider.DeleteCategory(ctx, ob.CategoryID); err != nil {
				return fmt.Errorf("deleting category: %w", err)
			}
		}
	}

	delete(st.Obligations, recurringID)
	scope.MarkDirty()
	return scope.Commit()
}

// AddRollupMember moves a tracked obligation into the shared rollup bucket.
// The rollup category is auto-provisioned on first add, and the member's
// individual budget is zeroed: membership and standalone tracking are
// mutually exclusive budget targets.
func (e *Engine) AddRollupMember(ctx context.Context, recurringID string) error {
	scope, err := e.store.Begin()
	if err != nil {
		return err
	}
	st := scope.State()

	ob, tracked := st.Obligations[recurringID]
	if !tracked {
		return fmt.Errorf("%s: %w", recurringID, ErrNotTracked)
	}
	if st.Rollup.HasMember(recurringID) {
		return nil
	}

	if st.Rollup.CategoryID == "" {
		id, err := e.provider.CreateCategory(ctx, e.group, st.Rollup.Name, st.Rollup.Icon)
		if err != nil {
			return fmt.Errorf("creating rollup category: %w", err)
		}
		st.Rollup.CategoryID = id
	}
	st.Rollup.Enabled = true

	if ob.CategoryID != "" {
		if err := e.provider.SetBudget(ctx, ob.CategoryID, e.now(), decimal.Zero); err != nil {
			return fmt.Errorf("zeroing member budget: %w", err)
		}
	}

	st.Rollup.AddMember(recurringID)
	scope.MarkDirty()
	return scope.Commit()
}

// RemoveRollupMember takes an obligation back out of the rollup and
// restores its individual budget to its own projected contribution.
func (e *Engine) RemoveRollupMember(ctx context.Context, recurringID string) error {
	scope, err := e.store.Begin()
	if err != nil {
		return err
	}
	st := scope.State()

	ob, tracked := st.Obligations[recurringID]
	if !tracked {
		return fmt.Errorf("%s: %w", recurringID, ErrNotTracked)
	}
	if !st.Rollup.RemoveMember(recurringID) {
		return fmt.Errorf("%s: not a rollup member: %w", recurringID, ErrNotTracked)
	}

	if ob.CategoryID != "" {
		if err := e.restoreIndividualBudget(ctx, st, ob); err != nil {
			return err
		}
	}

	scope.MarkDirty()
	return scope.Commit()
}

func (e *Engine) restoreIndividualBudget(ctx context.Context, st *model.TrackerState, ob *model.Obligation) error {
	items, err := e.provider.Recurring(ctx)
	if err != nil {
		return fmt.Errorf("fetching recurring list: %w", err)
	}

	now := e.now()
	for _, it := range items {
		if it.ID != ob.ID || !it.Active {
			continue
		}
		freq := model.FrequencyMonths(it.Frequency)
		months := monthsUntilDue(it.NextDueDate, now)

		balance, err := e.provider.CategoryBalance(ctx, ob.CategoryID)
		if err != nil {
			return fmt.Errorf("reading balance: %w", err)
		}
		ideal := projection.IdealMonthlyRate(it.Amount, freq)
		fr := frozen.NewEngine(st).GetOrCompute(ob.ID, it.Amount, freq, months,
			balance, ideal, frozen.MonthOf(now))
		if err := e.provider.SetBudget(ctx, ob.CategoryID, now, fr.Target); err != nil {
			return fmt.Errorf("restoring budget: %w", err)
		}
		return nil
	}
	// Vanished upstream; the next reconciliation pass will emit the notice.
	return nil
}

// EnableRollup turns the rollup on, optionally binding it to an existing
// category instead of creating one.
func (e *Engine) EnableRollup(ctx context.Context, linkCategoryID string) error {
	scope, err := e.store.Begin()
	if err != nil {
		return err
	}
	st := scope.State()

	if linkCategoryID != "" {
		cats, err := e.provider.Categories(ctx)
		if err != nil {
			return fmt.Errorf("fetching categories: %w", err)
		}
		var found bool
		for _, c := range cats {
			if c.ID == linkCategoryID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: %w", linkCategoryID, ErrNoSuchCategory)
		}
		st.Rollup.CategoryID = linkCategoryID
		st.Rollup.Linked = true
	} else if st.Rollup.CategoryID == "" {
		id, err := e.provider.CreateCategory(ctx, e.group, st.Rollup.Name, st.Rollup.Icon)
		if err != nil {
			return fmt.Errorf("creating rollup category: %w", err)
		}
		st.Rollup.CategoryID = id
	}

	st.Rollup.Enabled = true
	scope.MarkDirty()
	return scope.Commit()
}

// DisableRollup turns the rollup off. A created category is deleted, a
// linked one keeps a zeroed budget; former members return to standalone
// funding on the next reconciliation pass.
func (e *Engine) DisableRollup(ctx context.Context) error {
	scope, err := e.store.Begin()
	if err != nil {
		return err
	}
	st := scope.State()

	if st.Rollup.CategoryID != "" {
		if st.Rollup.Linked {
			if err := e.provider.SetBudget(ctx, st.Rollup.CategoryID, e.now(), decimal.Zero); err != nil {
				return fmt.Errorf("zeroing rollup budget: %w", err)
			}
		} else {
			if err := e.provider.DeleteCategory(ctx, st.Rollup.CategoryID); err != nil {
				return fmt.Errorf("deleting rollup category: %w", err)
			}
			st.Rollup.CategoryID = ""
		}
	}

	st.Rollup.Enabled = false
	st.Rollup.Members = nil
	st.Rollup.FrozenTargets = make(map[string]model.FrozenTarget)
	scope.MarkDirty()
	return scope.Commit()
}
