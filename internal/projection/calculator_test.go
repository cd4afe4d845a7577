package projection

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestProjectMonthlySubscription(t *testing.T) {
	res := Project(Input{
		TargetAmount:    dec("15.99"),
		CurrentBalance:  decimal.Zero,
		MonthsUntilDue:  1,
		FrequencyMonths: 1,
	})

	assert.True(t, res.MonthlyContribution.Equal(dec("16")),
		"contribution = %s, want 16", res.MonthlyContribution)
	assert.Equal(t, StatusOnTrack, res.Status)
}

func TestProjectYearlyOnSchedule(t *testing.T) {
	res := Project(Input{
		TargetAmount:    dec("120"),
		CurrentBalance:  dec("60"),
		MonthsUntilDue:  6,
		FrequencyMonths: 12,
	})

	assert.True(t, res.IdealMonthlyRate.Equal(dec("10")))
	assert.True(t, res.MonthlyContribution.Equal(dec("10")))
	assert.Equal(t, StatusOnTrack, res.Status)
}

func TestProjectYearlyBehindSchedule(t *testing.T) {
	res := Project(Input{
		TargetAmount:    dec("600"),
		CurrentBalance:  dec("300"),
		MonthsUntilDue:  3,
		FrequencyMonths: 12,
	})

	assert.True(t, res.IdealMonthlyRate.Equal(dec("50")))
	assert.True(t, res.MonthlyContribution.Equal(dec("100")))
	assert.Equal(t, StatusBehind, res.Status)
}

func TestProjectFullyFunded(t *testing.T) {
	res := Project(Input{
		TargetAmount:    dec("100"),
		CurrentBalance:  dec("125.50"),
		MonthsUntilDue:  4,
		FrequencyMonths: 12,
	})

	assert.Equal(t, StatusFunded, res.Status)
	assert.True(t, res.MonthlyContribution.IsZero())
	assert.True(t, res.OverContribution.Equal(dec("25.50")))
	assert.Equal(t, 100.0, res.ProgressPercent)
}

func TestProjectExactlyFunded(t *testing.T) {
	res := Project(Input{
		TargetAmount:    dec("49.99"),
		CurrentBalance:  dec("49.99"),
		MonthsUntilDue:  2,
		FrequencyMonths: 6,
	})

	assert.Equal(t, StatusFunded, res.Status)
	assert.True(t, res.MonthlyContribution.IsZero())
	assert.True(t, res.OverContribution.IsZero())
}

func TestProjectAheadViaOverContribution(t *testing.T) {
	res := Project(Input{
		TargetAmount:            dec("100"),
		CurrentBalance:          dec("80"),
		MonthsUntilDue:          5,
		FrequencyMonths:         12,
		TrackedOverContribution: dec("25"),
	})

	assert.Equal(t, StatusAhead, res.Status)
	assert.True(t, res.MonthlyContribution.IsZero())
}

func TestProjectDueNow(t *testing.T) {
	res := Project(Input{
		TargetAmount:    dec("90.40"),
		CurrentBalance:  dec("50"),
		MonthsUntilDue:  0,
		FrequencyMonths: 12,
	})

	assert.Equal(t, StatusDueNow, res.Status)
	assert.True(t, res.MonthlyContribution.Equal(dec("41")), "contribution = %s", res.MonthlyContribution)
	assert.True(t, res.AmountNeededNow.Equal(dec("40.40")))
}

func TestProjectSubMonthly(t *testing.T) {
	// Weekly obligation: the ideal rate carries four charges per month.
	res := Project(Input{
		TargetAmount:    dec("10"),
		CurrentBalance:  decimal.Zero,
		MonthsUntilDue:  1,
		FrequencyMonths: 0.25,
	})

	require.True(t, res.IdealMonthlyRate.Equal(dec("40")))
	assert.True(t, res.MonthlyContribution.Equal(dec("40")))
	assert.Equal(t, StatusOnTrack, res.Status)
	assert.True(t, res.AmountNeededNow.IsZero())
}

func TestProjectSubMonthlyCritical(t *testing.T) {
	// An overdrawn category pushes the shortfall past what the continuous
	// rate can cover before the next charge.
	res := Project(Input{
		TargetAmount:    dec("100"),
		CurrentBalance:  dec("-150"),
		MonthsUntilDue:  1,
		FrequencyMonths: 0.5,
	})

	require.True(t, res.IdealMonthlyRate.Equal(dec("200")))
	assert.Equal(t, StatusCritical, res.Status)
	assert.True(t, res.AmountNeededNow.Equal(dec("50")), "needed now = %s", res.AmountNeededNow)
}

func TestProjectSubMonthlyDueNow(t *testing.T) {
	res := Project(Input{
		TargetAmount:    dec("40"),
		CurrentBalance:  dec("10"),
		MonthsUntilDue:  0,
		FrequencyMonths: 0.25,
	})
	assert.Equal(t, StatusDueNow, res.Status)
}

func TestProjectContributionNeverNegative(t *testing.T) {
	cases := []Input{
		{TargetAmount: dec("100"), CurrentBalance: dec("400"), MonthsUntilDue: 3, FrequencyMonths: 12},
		{TargetAmount: dec("100"), CurrentBalance: dec("-40"), MonthsUntilDue: 3, FrequencyMonths: 12},
		{TargetAmount: decimal.Zero, CurrentBalance: decimal.Zero, MonthsUntilDue: 0, FrequencyMonths: 1},
		{TargetAmount: dec("33.33"), CurrentBalance: dec("1.11"), MonthsUntilDue: 7, FrequencyMonths: 3},
	}

	for _, in := range cases {
		res := Project(in)
		assert.False(t, res.MonthlyContribution.IsNegative(),
			"contribution %s for input %+v", res.MonthlyContribution, in)
		assert.True(t, res.MonthlyContribution.Equal(res.MonthlyContribution.Ceil()),
			"contribution %s is not a whole unit", res.MonthlyContribution)
	}
}

func TestProjectNegativeBalanceProgressClamped(t *testing.T) {
	res := Project(Input{
		TargetAmount:    dec("100"),
		CurrentBalance:  dec("-20"),
		MonthsUntilDue:  2,
		FrequencyMonths: 12,
	})
	assert.Equal(t, 0.0, res.ProgressPercent)
}

func TestProjectZeroTargetIsFullProgress(t *testing.T) {
	res := Project(Input{
		TargetAmount:    decimal.Zero,
		CurrentBalance:  decimal.Zero,
		MonthsUntilDue:  1,
		FrequencyMonths: 1,
	})
	assert.Equal(t, 100.0, res.ProgressPercent)
	assert.Equal(t, StatusFunded, res.Status)
}

func TestRateAfterCatchup(t *testing.T) {
	assert.True(t, RateAfterCatchup(dec("100"), dec("50")).Equal(dec("50")))
	assert.True(t, RateAfterCatchup(dec("30"), dec("50")).Equal(dec("30")))
	assert.True(t, RateAfterCatchup(dec("50"), dec("50")).Equal(dec("50")))
}
