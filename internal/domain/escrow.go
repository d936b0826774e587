package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowStatus is the lifecycle state of locked task funds.
type EscrowStatus string

const (
	EscrowStatusLocked   EscrowStatus = "locked"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

// EscrowRecord tracks funds reserved against a task's payout. A task has
// at most one non-terminal escrow; RELEASED and REFUNDED are terminal.
type EscrowRecord struct {
	ID             string
	TaskID         string
	AdvertiserID   string
	PayerAccountID string
	Amount         decimal.Decimal
	DebitEntryID   string
	Status         EscrowStatus
	SubmissionID   *string
	CreatedAt      time.Time
	ReleasedAt     *time.Time
}

// IsTerminal reports whether the escrow reached a final state.
func (e *EscrowRecord) IsTerminal() bool {
	return e.Status == EscrowStatusReleased || e.Status == EscrowStatusRefunded
}

// Validate checks invariants on a new escrow.
func (e *EscrowRecord) Validate() error {
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}
