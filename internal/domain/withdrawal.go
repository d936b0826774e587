package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the lifecycle state of a payout request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusFailed    WithdrawalStatus = "failed"
)

// WithdrawalMethod is how the payout is delivered.
type WithdrawalMethod string

const (
	WithdrawalMethodBankTransfer WithdrawalMethod = "bank_transfer"
)

// PayoutDetails identifies the destination bank account.
type PayoutDetails struct {
	AccountNumber string
	AccountName   string
	BankName      string
	BankCode      string
}

// WithdrawalRequest coordinates a user payout through the gateway.
// PENDING advances to APPROVED or REJECTED by admin action; APPROVED
// advances to COMPLETED or FAILED only via gateway webhooks.
type WithdrawalRequest struct {
	ID               string
	UserID           string
	Amount           decimal.Decimal
	Method           WithdrawalMethod
	Details          PayoutDetails
	Status           WithdrawalStatus
	DebitEntryID     *string
	GatewayReference string
	ProcessedBy      *string
	ProcessedAt      *time.Time
	AdminNotes       string
	CreatedAt        time.Time
}

// CanApprove reports whether the request may be approved.
func (w *WithdrawalRequest) CanApprove() bool {
	return w.Status == WithdrawalStatusPending
}

// CanReject reports whether the request may be rejected.
func (w *WithdrawalRequest) CanReject() bool {
	return w.Status == WithdrawalStatusPending
}

// CanSettle reports whether a gateway callback may finalise the request.
func (w *WithdrawalRequest) CanSettle() bool {
	return w.Status == WithdrawalStatusApproved
}
