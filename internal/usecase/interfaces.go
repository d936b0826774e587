package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByOwnerAndKind(ctx context.Context, ownerID string, kind domain.AccountKind) (*domain.Account, error)
	// GetOrCreateForUpdate locks the (owner, kind) account, inserting it
	// first when it does not exist yet. newID is used only on insertion.
	GetOrCreateForUpdate(ctx context.Context, tx Transaction, ownerID string, kind domain.AccountKind, allowNegative bool, newID string, now time.Time) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	// GetByExternalRef looks up an entry by its idempotency reference,
	// scoped to account and direction, inside the caller's transaction.
	GetByExternalRef(ctx context.Context, tx Transaction, accountID string, direction domain.EntryDirection, ref string) (*domain.Entry, error)
	// GetByReference finds an entry by external reference and category
	// across accounts, used to match gateway callbacks.
	GetByReference(ctx context.Context, tx Transaction, ref, category string) (*domain.Entry, error)
	// Apply flips a pending entry to success, recording the balances and
	// account version it was applied at.
	Apply(ctx context.Context, tx Transaction, id string, balanceBefore, balanceAfter decimal.Decimal, version int64, completedAt time.Time) error
	MarkFailed(ctx context.Context, tx Transaction, id string) error
	SetCompletedAt(ctx context.Context, tx Transaction, id string, completedAt time.Time) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	// SumSuccessByAccount replays the signed amounts of success entries.
	SumSuccessByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// EscrowRepository defines data access for escrow records.
type EscrowRepository interface {
	Create(ctx context.Context, tx Transaction, escrow *domain.EscrowRecord) error
	GetByID(ctx context.Context, id string) (*domain.EscrowRecord, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.EscrowRecord, error)
	GetByTaskID(ctx context.Context, taskID string) (*domain.EscrowRecord, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.EscrowStatus, submissionID *string, releasedAt time.Time) error
	ListByAdvertiser(ctx context.Context, advertiserID string, limit, offset int) ([]*domain.EscrowRecord, error)
}

// WithdrawalRepository defines data access for withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx Transaction, req *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.WithdrawalRequest, error)
	GetByGatewayRefForUpdate(ctx context.Context, tx Transaction, ref string) (*domain.WithdrawalRequest, error)
	// SumPendingByUser totals the user's other pending requests, inside
	// the caller's transaction so the available-balance check is stable.
	SumPendingByUser(ctx context.Context, tx Transaction, userID string) (decimal.Decimal, error)
	UpdateDecision(ctx context.Context, tx Transaction, req *domain.WithdrawalRequest) error
	UpdateSettlement(ctx context.Context, tx Transaction, id string, status domain.WithdrawalStatus, processedAt time.Time) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, error)
}

// ReferralRepository defines data access for the referral graph,
// commission tiers and earnings.
type ReferralRepository interface {
	CreateCode(ctx context.Context, code *domain.ReferralCode) error
	GetCodeByCode(ctx context.Context, code string) (*domain.ReferralCode, error)
	GetActiveCodeByUser(ctx context.Context, userID string) (*domain.ReferralCode, error)
	// CreateReferral inserts an edge, ignoring duplicates on
	// (referrer, referred). Returns whether a row was inserted.
	CreateReferral(ctx context.Context, tx Transaction, ref *domain.Referral) (bool, error)
	GetDirectReferrer(ctx context.Context, referredID string) (*domain.Referral, error)
	ListByReferred(ctx context.Context, referredID string) ([]*domain.Referral, error)
	GetTier(ctx context.Context, level int, earningType domain.EarningType) (*domain.CommissionTier, error)
	// CreateEarning inserts an earning. Signup earnings conflict on the
	// (referrer, referred) pair; the return reports whether a row was
	// inserted.
	CreateEarning(ctx context.Context, tx Transaction, earning *domain.ReferralEarning) (bool, error)
	GetEarningByID(ctx context.Context, id string) (*domain.ReferralEarning, error)
	GetEarningByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.ReferralEarning, error)
	HasSignupEarning(ctx context.Context, tx Transaction, referrerID, referredID string) (bool, error)
	UpdateEarning(ctx context.Context, tx Transaction, earning *domain.ReferralEarning) error
	ListEarningsByReferrer(ctx context.Context, referrerID string, limit, offset int) ([]*domain.ReferralEarning, error)
	StatsByReferrer(ctx context.Context, referrerID string) (*domain.ReferralStats, error)
}

// WebhookRepository defines data access for webhook events.
type WebhookRepository interface {
	// Insert atomically inserts the event, returning false when an event
	// with the same (gateway, reference, event type) already exists.
	Insert(ctx context.Context, tx Transaction, event *domain.WebhookEvent) (bool, error)
	MarkProcessed(ctx context.Context, tx Transaction, id string, processedAt time.Time) error
	GetByKey(ctx context.Context, gateway, reference, eventType string) (*domain.WebhookEvent, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// PaymentGateway is the external payout/funding collaborator. Only
// success/failure plus reference and amount cross this boundary.
type PaymentGateway interface {
	InitializePayment(ctx context.Context, userID string, amount decimal.Decimal, callbackURL string) (*GatewayAuthorization, error)
	VerifyPayment(ctx context.Context, reference string) (*GatewayPaymentStatus, error)
	CreateTransferRecipient(ctx context.Context, bankCode, accountNumber, accountName string) (string, error)
	InitiateTransfer(ctx context.Context, amount decimal.Decimal, recipientCode, reason string) (string, error)
	ResolveAccountNumber(ctx context.Context, accountNumber, bankCode string) (string, error)
}

// GatewayAuthorization is the result of initializing a payment.
type GatewayAuthorization struct {
	AuthorizationURL string
	Reference        string
}

// GatewayPaymentStatus is the result of verifying a payment.
type GatewayPaymentStatus struct {
	Reference string
	Status    string
	Amount    decimal.Decimal
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient storage conflicts such as
// deadlocks and serialization failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
