// Package projection computes monthly savings contributions and funding
// status for a single obligation. It is pure: no state, no clock, no I/O.
package projection

import (
	"github.com/shopspring/decimal"
)

// Status classifies how an obligation's funding is pacing against its due
// date.
type Status string

const (
	// StatusFunded means the balance already covers the full target.
	StatusFunded Status = "funded"
	// StatusAhead means the required monthly rate is comfortably below the
	// ideal steady-state rate.
	StatusAhead Status = "ahead"
	// StatusOnTrack means the required rate is at or near the ideal rate.
	StatusOnTrack Status = "on_track"
	// StatusBehind means catching up requires more than the ideal rate.
	StatusBehind Status = "behind"
	// StatusDueNow means the due date has arrived with a shortfall.
	StatusDueNow Status = "due_now"
	// StatusCritical means a sub-monthly obligation cannot be covered at
	// its continuous saving rate.
	StatusCritical Status = "critical"
)

// Input holds the projection inputs for one obligation.
type Input struct {
	TargetAmount            decimal.Decimal
	CurrentBalance          decimal.Decimal
	MonthsUntilDue          int
	FrequencyMonths         float64
	TrackedOverContribution decimal.Decimal
}

// Result is the projection outcome. MonthlyContribution is always a whole
// currency unit; the upstream ledger rejects fractional budget entries.
type Result struct {
	MonthlyContribution decimal.Decimal
	Status              Status
	IdealMonthlyRate    decimal.Decimal
	ProgressPercent     float64
	AmountNeededNow     decimal.Decimal
	OverContribution    decimal.Decimal
}

// Thresholds for the status tie-break against the ideal monthly rate.
var (
	aheadRatio   = decimal.NewFromFloat(0.9)
	onTrackRatio = decimal.NewFromFloat(1.1)
)

// IdealMonthlyRate is the steady-state saving rate for an obligation:
// ceil(target / frequencyMonths). For sub-monthly frequencies this is the
// continuous monthly rate, independent of any due date.
func IdealMonthlyRate(targetAmount decimal.Decimal, frequencyMonths float64) decimal.Decimal {
	if frequencyMonths <= 0 {
		return decimal.Zero
	}
	return targetAmount.Div(decimal.NewFromFloat(frequencyMonths)).Ceil()
}

// Project computes the required monthly contribution and funding status.
func Project(in Input) Result {
	res := Result{
		IdealMonthlyRate: IdealMonthlyRate(in.TargetAmount, in.FrequencyMonths),
		ProgressPercent:  progressPercent(in.CurrentBalance, in.TargetAmount),
	}

	if in.CurrentBalance.GreaterThanOrEqual(in.TargetAmount) {
		res.Status = StatusFunded
		res.OverContribution = in.CurrentBalance.Sub(in.TargetAmount)
		return res
	}

	effective := in.CurrentBalance.Add(in.TrackedOverContribution)
	shortfall := in.TargetAmount.Sub(effective)
	if shortfall.LessThanOrEqual(decimal.Zero) {
		res.Status = StatusAhead
		return res
	}

	if in.FrequencyMonths < 1 {
		return projectSubMonthly(in, shortfall, res)
	}

	if in.MonthsUntilDue <= 0 {
		res.Status = StatusDueNow
		res.MonthlyContribution = shortfall.Ceil()
		res.AmountNeededNow = shortfall
		return res
	}

	monthly := shortfall.Div(decimal.NewFromInt(int64(in.MonthsUntilDue))).Ceil()
	res.MonthlyContribution = monthly

	switch {
	case monthly.LessThanOrEqual(res.IdealMonthlyRate.Mul(aheadRatio)):
		res.Status = StatusAhead
	case monthly.LessThanOrEqual(res.IdealMonthlyRate.Mul(onTrackRatio)):
		res.Status = StatusOnTrack
	default:
		res.Status = StatusBehind
	}
	return res
}

// projectSubMonthly handles weekly, bi-weekly, and twice-monthly
// obligations: the contribution is the continuous ideal rate, and status
// reflects whether that rate still covers the shortfall in time.
func projectSubMonthly(in Input, shortfall decimal.Decimal, res Result) Result {
	res.MonthlyContribution = res.IdealMonthlyRate

	months := in.MonthsUntilDue
	if months < 1 {
		months = 1
	}
	needed := shortfall.Sub(res.IdealMonthlyRate.Mul(decimal.NewFromInt(int64(months))))
	if needed.LessThan(decimal.Zero) {
		needed = decimal.Zero
	}
	res.AmountNeededNow = needed

	switch {
	case in.MonthsUntilDue <= 0:
		res.Status = StatusDueNow
	case needed.IsPositive():
		res.Status = StatusCritical
	default:
		res.Status = StatusOnTrack
	}
	return res
}

// progressPercent is balance/target clamped to [0, 100]. A non-positive
// target counts as fully funded.
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

// RateAfterCatchup forecasts the steady-state monthly rate once a catch-up
// period ends: the frozen target while it is below the ideal rate, the
// ideal rate otherwise.
func RateAfterCatchup(frozenTarget, idealRate decimal.Decimal) decimal.Decimal {
	if frozenTarget.GreaterThan(idealRate) {
		return idealRate
	}
	return frozenTarget
}
