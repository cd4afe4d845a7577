package tui

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
)

func TestObligationRowsSortedAndActiveOnly(t *testing.T) {
	st := model.NewTrackerState()
	st.Obligations["b"] = &model.Obligation{
		ID: "b", Name: "Spotify", Active: true,
		Amount: decimal.NewFromInt(12),
		Frozen: model.FrozenTarget{MonthlyTarget: decimal.NewFromInt(12), TargetMonth: "2026-03", FrequencyMonths: 1},
	}
	st.Obligations["a"] = &model.Obligation{
		ID: "a", Name: "Netflix", Active: true,
		Amount: decimal.NewFromInt(16),
		Frozen: model.FrozenTarget{MonthlyTarget: decimal.NewFromInt(16), TargetMonth: "2026-03", FrequencyMonths: 1},
	}
	st.Obligations["c"] = &model.Obligation{
		ID: "c", Name: "Zombo", Active: false,
		Amount: decimal.NewFromInt(5),
	}

	rows := obligationRows(st)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (inactive excluded)", len(rows))
	}
	if rows[0][0] != "Netflix" || rows[1][0] != "Spotify" {
		t.Fatalf("rows out of order: %q, %q", rows[0][0], rows[1][0])
	}
	if rows[0][1] != "$16.00" {
		t.Errorf("amount cell = %q", rows[0][1])
	}
	if rows[0][2] != "monthly" {
		t.Errorf("cadence cell = %q", rows[0][2])
	}
}

func TestObligationRowsMarksRollupMembers(t *testing.T) {
	st := model.NewTrackerState()
	st.Obligations["a"] = &model.Obligation{
		ID: "a", Name: "Netflix", Active: true,
		Amount: decimal.NewFromInt(16),
		Frozen: model.FrozenTarget{MonthlyTarget: decimal.NewFromInt(16), TargetMonth: "2026-03", FrequencyMonths: 1},
	}
	st.Rollup.AddMember("a")

	rows := obligationRows(st)
	if rows[0][0] != "Netflix *" {
		t.Fatalf("rollup member not marked: %q", rows[0][0])
	}
}
