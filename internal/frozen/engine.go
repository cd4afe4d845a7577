// Package frozen pins each obligation's monthly savings target for the
// duration of a calendar month. Mid-month balance swings (spending, refunds)
// must not move the displayed target; only a month rollover or a change to
// the target amount or billing frequency forces a recompute.
package frozen

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
)

// Store is the persistence contract for freeze records, keyed by storage
// key. Standalone obligations use their obligation ID; rollup members use a
// derived key so the two namespaces never collide.
type Store interface {
	FrozenTargetRecord(key string) (model.FrozenTarget, bool)
	SetFrozenTargetRecord(key string, ft model.FrozenTarget)
}

// Engine computes and caches month-scoped targets over a Store.
type Engine struct {
	store Store
}

// NewEngine returns an engine backed by the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Result reports the frozen target plus within-month progress relative to
// the balance captured at freeze time.
type Result struct {
	Target                 decimal.Decimal
	BalanceAtStart         decimal.Decimal
	ContributedThisMonth   decimal.Decimal
	MonthlyProgressPercent float64
	Recalculated           bool
}

// MonthOf returns the month key ("2006-01") for a point in time.
func MonthOf(t time.Time) string {
	return t.Format("2006-01")
}

// GetOrCompute returns the frozen target for the given storage key,
// recomputing it only when the stored record is absent, from a different
// month, or was computed from a different amount or frequency.
func (e *Engine) GetOrCompute(key string, amount decimal.Decimal, frequencyMonths float64,
	monthsUntilDue int, currentBalance, idealRate decimal.Decimal, month string) Result {

	rec, ok := e.store.FrozenTargetRecord(key)
	if ok && rec.ValidFor(month, amount, frequencyMonths) {
		return resultFrom(rec, currentBalance, false)
	}

	target := computeTarget(amount, frequencyMonths, monthsUntilDue, currentBalance, idealRate)
	rec = model.FrozenTarget{
		MonthlyTarget:       target,
		TargetMonth:         month,
		BalanceAtMonthStart: currentBalance,
		Amount:              amount,
		FrequencyMonths:     frequencyMonths,
	}
	e.store.SetFrozenTargetRecord(key, rec)
	return resultFrom(rec, currentBalance, true)
}

func computeTarget(amount decimal.Decimal, frequencyMonths float64,
	monthsUntilDue int, currentBalance, idealRate decimal.Decimal) decimal.Decimal {

	if frequencyMonths <= 1 {
		return idealRate.Ceil()
	}

	remaining := amount.Sub(currentBalance)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	months := monthsUntilDue
	if months < 1 {
		months = 1
	}
	return remaining.Div(decimal.NewFromInt(int64(months))).Ceil()
}

func resultFrom(rec model.FrozenTarget, currentBalance decimal.Decimal, recalculated bool) Result {
	contributed := currentBalance.Sub(rec.BalanceAtMonthStart)
	if contributed.IsNegative() {
		contributed = decimal.Zero
	}

	progress := 100.0
	if rec.MonthlyTarget.IsPositive() {
		progress = contributed.Div(rec.MonthlyTarget).InexactFloat64() * 100
	}

	return Result{
		Target:                 rec.MonthlyTarget,
		BalanceAtStart:         rec.BalanceAtMonthStart,
		ContributedThisMonth:   contributed,
		MonthlyProgressPercent: progress,
		Recalculated:           recalculated,
	}
}
