package domain

import "errors"

var (
	// Ledger errors
	ErrInvalidAmount      = errors.New("amount must be a positive two-decimal value")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrAccountNotFound    = errors.New("account not found")
	ErrEntryNotFound      = errors.New("ledger entry not found")
	ErrDuplicateReference = errors.New("reference already used on this account")
	ErrSameAccount        = errors.New("source and destination wallets are the same")

	// Escrow errors
	ErrEscrowNotFound   = errors.New("escrow not found")
	ErrEscrowExists     = errors.New("task already has an active escrow")
	ErrDuplicateRelease = errors.New("escrow already released for this submission")

	// Withdrawal errors
	ErrWithdrawalNotFound = errors.New("withdrawal request not found")
	ErrBelowMinimum       = errors.New("amount below minimum withdrawal")

	// Referral errors
	ErrEarningNotFound      = errors.New("referral earning not found")
	ErrReferralCodeNotFound = errors.New("referral code not found")
	ErrReferralNotFound     = errors.New("referral not found")
	ErrSelfReferral         = errors.New("cannot refer yourself")
	ErrTierNotConfigured    = errors.New("no commission tier configured for level and earning type")

	// Webhook errors
	ErrWebhookNotFound = errors.New("webhook event not found")

	// Shared errors
	ErrInvalidState   = errors.New("invalid state for this transition")
	ErrGatewayFailure = errors.New("payment gateway failure")
	ErrBusy           = errors.New("account busy, retry the operation")
)
