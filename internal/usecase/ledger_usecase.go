package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/infrastructure/metrics"
)

// LedgerUseCase owns every balance mutation. Account balances and their
// entry chains are written here and nowhere else; the escrow, withdrawal,
// referral and webhook use cases compose the Tx-scoped operations inside
// their own transactions.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics

	platformOwnerID       string
	platformAllowNegative bool
}

// LedgerConfig carries the injected platform-account policy.
type LedgerConfig struct {
	PlatformOwnerID       string
	PlatformAllowNegative bool
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
	cfg LedgerConfig,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:             txManager,
		accountRepo:           accountRepo,
		entryRepo:             entryRepo,
		idGen:                 idGen,
		metrics:               m,
		platformOwnerID:       cfg.PlatformOwnerID,
		platformAllowNegative: cfg.PlatformAllowNegative,
	}
}

// MovementInput describes a single credit or debit.
type MovementInput struct {
	OwnerID     string
	Kind        domain.AccountKind
	Amount      decimal.Decimal
	Category    string
	ExternalRef string
	Description string
}

// Credit credits an account in its own transaction. When ExternalRef is
// set and an entry with the same reference already exists, the existing
// entry is returned unchanged.
func (uc *LedgerUseCase) Credit(ctx context.Context, input MovementInput) (*domain.Entry, error) {
	return uc.move(ctx, input, domain.EntryDirectionCredit)
}

// Debit debits an account in its own transaction, failing with
// ErrInsufficientFunds when the balance does not cover the amount.
func (uc *LedgerUseCase) Debit(ctx context.Context, input MovementInput) (*domain.Entry, error) {
	return uc.move(ctx, input, domain.EntryDirectionDebit)
}

func (uc *LedgerUseCase) move(ctx context.Context, input MovementInput, direction domain.EntryDirection) (*domain.Entry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if !input.Kind.IsValid() {
		return nil, domain.ErrAccountNotFound
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.LockAccountTx(txCtx, tx, input.OwnerID, input.Kind)
	if err != nil {
		return nil, err
	}

	var entry *domain.Entry
	if direction == domain.EntryDirectionCredit {
		entry, err = uc.CreditTx(txCtx, tx, account, input.Amount, input.Category, input.ExternalRef, input.Description)
	} else {
		entry, err = uc.DebitTx(txCtx, tx, account, input.Amount, input.Category, input.ExternalRef, input.Description)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return entry, nil
}

// LockAccountTx locks the (owner, kind) account with an exclusive row
// lock, creating it lazily on first use.
func (uc *LedgerUseCase) LockAccountTx(ctx context.Context, tx Transaction, ownerID string, kind domain.AccountKind) (*domain.Account, error) {
	allowNegative := kind == domain.AccountKindPlatform && uc.platformAllowNegative

	return uc.accountRepo.GetOrCreateForUpdate(ctx, tx, ownerID, kind, allowNegative, uc.idGen.Generate(), time.Now().UTC())
}

// LockAccountsTx locks several (owner, kind) accounts. Keys are locked
// in sorted order so concurrent multi-account operations acquire row
// locks in the same sequence and cannot deadlock.
func (uc *LedgerUseCase) LockAccountsTx(ctx context.Context, tx Transaction, keys []AccountKey) (map[AccountKey]*domain.Account, error) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].OwnerID != keys[j].OwnerID {
			return keys[i].OwnerID < keys[j].OwnerID
		}
		return keys[i].Kind < keys[j].Kind
	})

	out := make(map[AccountKey]*domain.Account, len(keys))
	for _, key := range keys {
		if _, ok := out[key]; ok {
			continue
		}

		account, err := uc.LockAccountTx(ctx, tx, key.OwnerID, key.Kind)
		if err != nil {
			return nil, err
		}
		out[key] = account
	}

	return out, nil
}

// AccountKey identifies an account by owner and kind.
type AccountKey struct {
	OwnerID string
	Kind    domain.AccountKind
}

// CreditTx appends a success credit entry and advances the balance of an
// already-locked account. The account struct is updated in place.
func (uc *LedgerUseCase) CreditTx(ctx context.Context, tx Transaction, account *domain.Account, amount decimal.Decimal, category, externalRef, description string) (*domain.Entry, error) {
	return uc.applyTx(ctx, tx, account, amount, domain.EntryDirectionCredit, category, externalRef, description)
}

// DebitTx appends a success debit entry and advances the balance of an
// already-locked account.
func (uc *LedgerUseCase) DebitTx(ctx context.Context, tx Transaction, account *domain.Account, amount decimal.Decimal, category, externalRef, description string) (*domain.Entry, error) {
	return uc.applyTx(ctx, tx, account, amount, domain.EntryDirectionDebit, category, externalRef, description)
}

func (uc *LedgerUseCase) applyTx(ctx context.Context, tx Transaction, account *domain.Account, amount decimal.Decimal, direction domain.EntryDirection, category, externalRef, description string) (*domain.Entry, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var refPtr *string
	if externalRef != "" {
		if err := domain.ValidateReference(externalRef); err != nil {
			return nil, err
		}
		refPtr = &externalRef

		existing, err := uc.entryRepo.GetByExternalRef(ctx, tx, account.ID, direction, externalRef)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrEntryNotFound) {
			return nil, err
		}
	}

	var newBalance decimal.Decimal
	if direction == domain.EntryDirectionDebit {
		if err := account.ValidateDebit(amount); err != nil {
			return nil, err
		}
		newBalance = account.ApplyDebit(amount)
	} else {
		newBalance = account.ApplyCredit(amount)
	}

	now := time.Now().UTC()
	entry := &domain.Entry{
		ID:             uc.idGen.Generate(),
		AccountID:      account.ID,
		Direction:      direction,
		Category:       category,
		Amount:         amount,
		BalanceBefore:  account.Balance,
		BalanceAfter:   newBalance,
		Status:         domain.EntryStatusSuccess,
		ExternalRef:    refPtr,
		AccountVersion: account.Version + 1,
		Description:    description,
		CreatedAt:      now,
		CompletedAt:    &now,
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version+1, now); err != nil {
		return nil, err
	}

	account.Balance = newBalance
	account.Version++

	if uc.metrics != nil {
		uc.metrics.EntriesCreated.WithLabelValues(string(direction), category).Inc()
	}

	return entry, nil
}

// CreatePendingCredit records a credit entry that does not yet affect the
// balance, used for gateway-funded credits awaiting confirmation.
func (uc *LedgerUseCase) CreatePendingCredit(ctx context.Context, input MovementInput) (*domain.Entry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateReference(input.ExternalRef); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.LockAccountTx(txCtx, tx, input.OwnerID, input.Kind)
	if err != nil {
		return nil, err
	}

	existing, err := uc.entryRepo.GetByExternalRef(txCtx, tx, account.ID, domain.EntryDirectionCredit, input.ExternalRef)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrEntryNotFound) {
		return nil, err
	}

	ref := input.ExternalRef
	entry := &domain.Entry{
		ID:          uc.idGen.Generate(),
		AccountID:   account.ID,
		Direction:   domain.EntryDirectionCredit,
		Category:    input.Category,
		Amount:      input.Amount,
		Status:      domain.EntryStatusPending,
		ExternalRef: &ref,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return entry, nil
}

// ApplyPendingTx flips a pending credit entry to success and applies its
// amount to the already-locked account. Calling it on an entry that is
// already success is a no-op returning the entry as-is.
func (uc *LedgerUseCase) ApplyPendingTx(ctx context.Context, tx Transaction, account *domain.Account, entry *domain.Entry) (*domain.Entry, error) {
	if entry.Status == domain.EntryStatusSuccess {
		return entry, nil
	}
	if entry.Status != domain.EntryStatusPending {
		return nil, domain.ErrInvalidState
	}
	if entry.AccountID != account.ID {
		return nil, domain.ErrAccountNotFound
	}

	now := time.Now().UTC()
	newBalance := account.ApplyCredit(entry.Amount)

	if err := uc.entryRepo.Apply(ctx, tx, entry.ID, account.Balance, newBalance, account.Version+1, now); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version+1, now); err != nil {
		return nil, err
	}

	entry.Status = domain.EntryStatusSuccess
	entry.BalanceBefore = account.Balance
	entry.BalanceAfter = newBalance
	entry.AccountVersion = account.Version + 1
	entry.CompletedAt = &now

	account.Balance = newBalance
	account.Version++

	if uc.metrics != nil {
		uc.metrics.EntriesCreated.WithLabelValues(string(domain.EntryDirectionCredit), entry.Category).Inc()
	}

	return entry, nil
}

// TransferInput describes a move between two of one owner's wallets,
// such as topping up the task wallet from the main balance.
type TransferInput struct {
	OwnerID     string
	FromKind    domain.AccountKind
	ToKind      domain.AccountKind
	Amount      decimal.Decimal
	ExternalRef string
}

// TransferResult carries both legs of a completed wallet transfer.
type TransferResult struct {
	DebitEntry  *domain.Entry
	CreditEntry *domain.Entry
}

// Transfer moves funds between two wallets of the same owner in one
// transaction, debiting the source and crediting the destination. Both
// legs share the caller's external reference, so a retried transfer
// resolves to the original entries.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if !input.FromKind.IsValid() || !input.ToKind.IsValid() {
		return nil, domain.ErrAccountNotFound
	}
	if input.FromKind == input.ToKind {
		return nil, domain.ErrSameAccount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	accounts, err := uc.LockAccountsTx(txCtx, tx, []AccountKey{
		{OwnerID: input.OwnerID, Kind: input.FromKind},
		{OwnerID: input.OwnerID, Kind: input.ToKind},
	})
	if err != nil {
		return nil, err
	}
	source := accounts[AccountKey{OwnerID: input.OwnerID, Kind: input.FromKind}]
	destination := accounts[AccountKey{OwnerID: input.OwnerID, Kind: input.ToKind}]

	var ref string
	if input.ExternalRef != "" {
		ref = refPrefixWalletTransfer + input.ExternalRef
	}

	debit, err := uc.DebitTx(txCtx, tx, source, input.Amount, domain.EntryCategoryWalletTransfer, ref,
		fmt.Sprintf("Transfer to %s wallet", input.ToKind))
	if err != nil {
		return nil, err
	}

	credit, err := uc.CreditTx(txCtx, tx, destination, input.Amount, domain.EntryCategoryWalletTransfer, ref,
		fmt.Sprintf("Transfer from %s wallet", input.FromKind))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return &TransferResult{DebitEntry: debit, CreditEntry: credit}, nil
}

// GetBalance returns the current balance for an (owner, kind) account.
// A missing account reads as zero: accounts exist lazily.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, ownerID string, kind domain.AccountKind) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetByOwnerAndKind(ctx, ownerID, kind)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}

// ListEntriesInput represents input for listing entries.
type ListEntriesInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListEntries lists ledger entries for an account.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.Entry, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.entryRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}
