package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection is the sign of a ledger entry.
type EntryDirection string

const (
	EntryDirectionCredit EntryDirection = "credit"
	EntryDirectionDebit  EntryDirection = "debit"
)

// EntryStatus tracks whether an entry affects the account balance.
// Only success entries count toward the replay sum; pending entries are
// placeholders awaiting gateway confirmation.
type EntryStatus string

const (
	EntryStatusPending EntryStatus = "pending"
	EntryStatusSuccess EntryStatus = "success"
	EntryStatusFailed  EntryStatus = "failed"
)

// Entry categories.
const (
	EntryCategoryFunding          = "funding"
	EntryCategoryEscrow           = "escrow"
	EntryCategoryTaskEarning      = "task_earning"
	EntryCategoryPlatformFee      = "platform_fee"
	EntryCategoryRefund           = "refund"
	EntryCategoryWithdrawal       = "withdrawal"
	EntryCategoryWithdrawalRefund = "withdrawal_refund"
	EntryCategoryReferralBonus    = "referral_bonus"
	EntryCategoryWalletTransfer   = "wallet_transfer"
)

// Entry is a single append-only ledger entry. Entries on an account form
// a gap-free chain ordered by AccountVersion, each carrying the balance
// before and after it was applied.
type Entry struct {
	ID             string
	AccountID      string
	Direction      EntryDirection
	Category       string
	Amount         decimal.Decimal
	BalanceBefore  decimal.Decimal
	BalanceAfter   decimal.Decimal
	Status         EntryStatus
	ExternalRef    *string
	RelatedEntryID *string
	AccountVersion int64
	Description    string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Signed returns the amount with debit entries negated, the value
// summed during balance replay.
func (e *Entry) Signed() decimal.Decimal {
	if e.Direction == EntryDirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
