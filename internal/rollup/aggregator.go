// Package rollup aggregates several small obligations under one shared
// budget category. The shared balance is split across members in proportion
// to their target amounts, and each member is frozen-targeted independently
// under a derived storage key.
package rollup

import (
	"github.com/shopspring/decimal"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/frozen"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/projection"
)

// Member is one rollup member's reconciliation-time inputs, resolved from
// the upstream obligation list.
type Member struct {
	ID              string
	Name            string
	Amount          decimal.Decimal
	FrequencyMonths float64
	MonthsUntilDue  int
}

// MemberResult is one member's share of the rollup computation.
type MemberResult struct {
	Member
	VirtualBalance decimal.Decimal
	IdealRate      decimal.Decimal
	Frozen         frozen.Result
}

// Result is the rollup-wide aggregate.
type Result struct {
	TotalTarget        decimal.Decimal
	Balance            decimal.Decimal
	TotalFrozenMonthly decimal.Decimal
	TotalIdealRate     decimal.Decimal
	ProgressPercent    float64
	Members            []MemberResult
}

// Aggregator runs the per-member frozen-target computation over the shared
// balance.
type Aggregator struct {
	engine *frozen.Engine
}

// New returns an aggregator using the given frozen-target engine.
func New(engine *frozen.Engine) *Aggregator {
	return &Aggregator{engine: engine}
}

// Aggregate allocates the shared balance proportionally, runs each member
// through the frozen-target engine under its derived key, and sums the
// per-member results. TotalIdealRate uses each member's rate after catch-up,
// not its raw ideal rate.
func (a *Aggregator) Aggregate(members []Member, balance decimal.Decimal, month string) Result {
	res := Result{Balance: balance}

	for _, m := range members {
		res.TotalTarget = res.TotalTarget.Add(m.Amount)
	}

	for _, m := range members {
		virtual := decimal.Zero
		if res.TotalTarget.IsPositive() {
			virtual = balance.Mul(m.Amount.Div(res.TotalTarget))
		}

		ideal := projection.IdealMonthlyRate(m.Amount, m.FrequencyMonths)
		fr := a.engine.GetOrCompute(model.RollupTargetKey(m.ID), m.Amount, m.FrequencyMonths,
			m.MonthsUntilDue, virtual, ideal, month)

		res.TotalFrozenMonthly = res.TotalFrozenMonthly.Add(fr.Target)
		res.TotalIdealRate = res.TotalIdealRate.Add(projection.RateAfterCatchup(fr.Target, ideal))
		res.Members = append(res.Members, MemberResult{
			Member:         m,
			VirtualBalance: virtual,
			IdealRate:      ideal,
			Frozen:         fr,
		})
	}

	res.ProgressPercent = progressPercent(balance, res.TotalTarget)
	return res
}

func progressPercent(balance, target decimal.Decimal) float64 {
	if target.LessThanOrEqual(decimal.Zero) {
		return 100
	}
	pct := balance.Div(target).InexactFloat64() * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
