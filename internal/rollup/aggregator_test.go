package rollup

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/frozen"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newAggregator() (*Aggregator, *model.TrackerState) {
	st := model.NewTrackerState()
	return New(frozen.NewEngine(st)), st
}

func TestAggregateProportionalAllocation(t *testing.T) {
	a, _ := newAggregator()

	members := []Member{
		{ID: "a", Name: "Netflix", Amount: dec("15"), FrequencyMonths: 1, MonthsUntilDue: 1},
		{ID: "b", Name: "Insurance", Amount: dec("60"), FrequencyMonths: 12, MonthsUntilDue: 6},
	}

	res := a.Aggregate(members, dec("30"), "2026-09")
	require.Len(t, res.Members, 2)

	assert.True(t, res.TotalTarget.Equal(dec("75")))
	// 30 * 15/75 = 6, 30 * 60/75 = 24
	assert.True(t, res.Members[0].VirtualBalance.Equal(dec("6")),
		"virtual = %s", res.Members[0].VirtualBalance)
	assert.True(t, res.Members[1].VirtualBalance.Equal(dec("24")))
}

func TestAggregateZeroTargetZeroBalances(t *testing.T) {
	a, _ := newAggregator()

	members := []Member{
		{ID: "a", Amount: decimal.Zero, FrequencyMonths: 1, MonthsUntilDue: 1},
		{ID: "b", Amount: decimal.Zero, FrequencyMonths: 1, MonthsUntilDue: 1},
	}

	res := a.Aggregate(members, dec("50"), "2026-09")
	for _, m := range res.Members {
		assert.True(t, m.VirtualBalance.IsZero())
	}
	assert.Equal(t, 100.0, res.ProgressPercent)
}

func TestAggregateSumsFrozenTargets(t *testing.T) {
	a, _ := newAggregator()

	members := []Member{
		{ID: "a", Name: "Netflix", Amount: dec("15"), FrequencyMonths: 1, MonthsUntilDue: 1},
		{ID: "b", Name: "Insurance", Amount: dec("120"), FrequencyMonths: 12, MonthsUntilDue: 6},
	}

	res := a.Aggregate(members, decimal.Zero, "2026-09")

	// Netflix: ideal 15; Insurance: ceil(120/6) = 20.
	assert.True(t, res.TotalFrozenMonthly.Equal(dec("35")),
		"total frozen = %s", res.TotalFrozenMonthly)
}

func TestAggregateUsesDerivedKeys(t *testing.T) {
	a, st := newAggregator()

	// A standalone obligation with the same ID must keep its own freeze.
	st.Obligations["a"] = &model.Obligation{ID: "a", Name: "Standalone"}

	members := []Member{
		{ID: "a", Name: "Netflix", Amount: dec("15"), FrequencyMonths: 1, MonthsUntilDue: 1},
	}
	a.Aggregate(members, decimal.Zero, "2026-09")

	_, ok := st.Rollup.FrozenTargets[model.RollupTargetKey("a")]
	assert.True(t, ok, "rollup freeze not stored under derived key")
	assert.True(t, st.Obligations["a"].Frozen.IsZero(),
		"standalone freeze clobbered by rollup member")
}

func TestAggregateIdealRateUsesCatchupRate(t *testing.T) {
	a, _ := newAggregator()

	// Behind schedule: frozen target 60 exceeds ideal 10, so the aggregate
	// ideal uses the post-catchup rate (10), not the frozen 60.
	members := []Member{
		{ID: "a", Name: "Annual", Amount: dec("120"), FrequencyMonths: 12, MonthsUntilDue: 2},
	}
	res := a.Aggregate(members, decimal.Zero, "2026-09")

	require.True(t, res.TotalFrozenMonthly.Equal(dec("60")))
	assert.True(t, res.TotalIdealRate.Equal(dec("10")),
		"total ideal = %s", res.TotalIdealRate)
}

func TestAggregateProgressClamped(t *testing.T) {
	a, _ := newAggregator()

	members := []Member{
		{ID: "a", Amount: dec("10"), FrequencyMonths: 1, MonthsUntilDue: 1},
	}
	res := a.Aggregate(members, dec("90"), "2026-09")
	assert.Equal(t, 100.0, res.ProgressPercent)
}

func TestRollupMembershipExclusive(t *testing.T) {
	st := model.NewTrackerState()

	assert.True(t, st.Rollup.AddMember("a"))
	assert.False(t, st.Rollup.AddMember("a"), "add should be idempotent")
	assert.True(t, st.Rollup.AddMember("b"))

	assert.True(t, st.Rollup.RemoveMember("a"))
	assert.False(t, st.Rollup.RemoveMember("a"))
	assert.Equal(t, []string{"b"}, st.Rollup.Members)
}
