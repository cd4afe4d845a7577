// Package model defines the domain types for tracked obligations, the
// rollup bucket, removal notices, and the persisted tracker state.
package model

import (
	"github.com/shopspring/decimal"
)

// FrozenTarget is the month-scoped savings target pinned for one obligation.
// A record is valid only while the month, amount, and frequency it was
// computed from all still match the live inputs.
type FrozenTarget struct {
	MonthlyTarget       decimal.Decimal `json:"frozen_monthly_target"`
	TargetMonth         string          `json:"target_month,omitempty"`
	BalanceAtMonthStart decimal.Decimal `json:"balance_at_month_start"`
	Amount              decimal.Decimal `json:"frozen_amount"`
	FrequencyMonths     float64         `json:"frozen_frequency_months"`
}

// IsZero reports whether no freeze has been recorded yet.
func (f FrozenTarget) IsZero() bool {
	return f.TargetMonth == ""
}

// ValidFor reports whether the record still applies to the given month,
// target amount, and billing frequency.
func (f FrozenTarget) ValidFor(month string, amount decimal.Decimal, frequencyMonths float64) bool {
	return f.TargetMonth == month &&
		f.Amount.Equal(amount) &&
		f.FrequencyMonths == frequencyMonths
}

// Obligation is one recurring expense the user tracks against a Monarch
// category. The ID is the upstream recurring-stream ID; CategoryID is the
// budget category this tracker created or linked.
type Obligation struct {
	ID               string          `json:"id"`
	CategoryID       string          `json:"category_id,omitempty"`
	Name             string          `json:"name"`
	Amount           decimal.Decimal `json:"amount"`
	Icon             string          `json:"icon,omitempty"`
	Active           bool            `json:"is_active"`
	Linked           bool            `json:"is_linked"`
	SyncName         bool            `json:"sync_name"`
	OverContribution decimal.Decimal `json:"over_contribution"`
	PreviousDueDate  string          `json:"previous_due_date,omitempty"`
	Frozen           FrozenTarget    `json:"frozen_target"`
}
