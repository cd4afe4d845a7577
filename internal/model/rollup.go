package model

import (
	"slices"

	"github.com/shopspring/decimal"
)

// RollupKeyPrefix disambiguates frozen-target records of rollup members
// from standalone obligation records.
const RollupKeyPrefix = "rollup:"

// RollupTargetKey returns the frozen-target storage key for a rollup member.
func RollupTargetKey(obligationID string) string {
	return RollupKeyPrefix + obligationID
}

// Rollup is the singleton shared bucket that aggregates several small
// obligations under one budget line.
type Rollup struct {
	Enabled        bool                    `json:"enabled"`
	CategoryID     string                  `json:"category_id,omitempty"`
	Name           string                  `json:"name"`
	Icon           string                  `json:"icon,omitempty"`
	Members        []string                `json:"member_ids"`
	BudgetedAmount decimal.Decimal         `json:"budgeted_amount"`
	Linked         bool                    `json:"is_linked"`
	FrozenTargets  map[string]FrozenTarget `json:"frozen_targets,omitempty"`
}

// HasMember reports whether the obligation ID is a rollup member.
func (r *Rollup) HasMember(id string) bool {
	return slices.Contains(r.Members, id)
}

// AddMember adds an obligation to the rollup. Returns false if it was
// already a member.
func (r *Rollup) AddMember(id string) bool {
	if r.HasMember(id) {
		return false
	}
	r.Members = append(r.Members, id)
	return true
}

// RemoveMember removes an obligation from the rollup and drops its derived
// frozen-target record. Returns false if it was not a member.
func (r *Rollup) RemoveMember(id string) bool {
	idx := slices.Index(r.Members, id)
	if idx < 0 {
		return false
	}
	r.Members = slices.Delete(r.Members, idx, idx+1)
	delete(r.FrozenTargets, RollupTargetKey(id))
	return true
}
