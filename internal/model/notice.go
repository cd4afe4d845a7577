package model

import (
	"time"

	"github.com/google/uuid"
)

// RemovalNotice records that a tracked obligation disappeared from the
// upstream recurring list. Dismissal flips a flag rather than deleting the
// record, so replaying a reconciliation pass stays idempotent.
type RemovalNotice struct {
	ID           string    `json:"id"`
	ObligationID string    `json:"obligation_id"`
	Name         string    `json:"name"`
	CategoryName string    `json:"category_name,omitempty"`
	WasRollup    bool      `json:"was_rollup"`
	CreatedAt    time.Time `json:"created_at"`
	Dismissed    bool      `json:"dismissed"`
}

// NewRemovalNotice creates a notice for a vanished obligation.
func NewRemovalNotice(ob *Obligation, categoryName string, wasRollup bool, at time.Time) RemovalNotice {
	return RemovalNotice{
		ID:           uuid.NewString(),
		ObligationID: ob.ID,
		Name:         ob.Name,
		CategoryName: categoryName,
		WasRollup:    wasRollup,
		CreatedAt:    at,
	}
}
