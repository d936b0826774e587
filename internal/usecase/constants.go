package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction.
	// This prevents long-running transactions from blocking accounts.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)

// Idempotency reference prefixes. One deterministic key exists per
// financial effect, so retries resolve to the original entry. Escrow
// refs carry the escrow ID (release also the submission ID): a task
// can hold a fresh escrow after a refund, and each lifecycle owns its
// own entries.
const (
	refPrefixTaskPayment      = "TASK_PAYMENT_"
	refPrefixPlatformFee      = "FEE_"
	refPrefixEscrowLock       = "ESCROW_"
	refPrefixEscrowRefund     = "REFUND_TASK_"
	refPrefixWithdrawal       = "WD_"
	refPrefixWithdrawalRefund = "WDREFUND_"
	refPrefixReferral         = "REFERRAL_"
	refPrefixWalletTransfer   = "XFER_"
)
