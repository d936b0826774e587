package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/infrastructure/logging"
)

// DriftReport compares an account's stored balance against the replay
// of its successful entries.
type DriftReport struct {
	AccountID     string
	OwnerID       string
	Kind          domain.AccountKind
	StoredBalance decimal.Decimal
	ReplayedSum   decimal.Decimal
	Drift         decimal.Decimal
	Consistent    bool
}

// ReconciliationUseCase audits the ledger invariant that every balance
// equals the sum of its signed successful entries.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	logger      *logging.Logger
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(accountRepo AccountRepository, entryRepo EntryRepository, logger *logging.Logger) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		logger:      logger,
	}
}

// ReplayAccount replays one account's entry chain.
func (uc *ReconciliationUseCase) ReplayAccount(ctx context.Context, accountID string) (*DriftReport, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sum, err := uc.entryRepo.SumSuccessByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	report := &DriftReport{
		AccountID:     account.ID,
		OwnerID:       account.OwnerID,
		Kind:          account.Kind,
		StoredBalance: account.Balance,
		ReplayedSum:   sum,
		Drift:         account.Balance.Sub(sum),
		Consistent:    account.Balance.Equal(sum),
	}

	if !report.Consistent {
		uc.logger.WarnCtx(ctx, "balance drift detected",
			"account_id", account.ID,
			"stored", account.Balance.String(),
			"replayed", sum.String(),
			"drift", report.Drift.String(),
		)
	}

	return report, nil
}

// ReplayAll walks every account and reports only the inconsistent ones.
func (uc *ReconciliationUseCase) ReplayAll(ctx context.Context) ([]*DriftReport, error) {
	const pageSize = 500

	var drifted []*DriftReport
	for offset := 0; ; offset += pageSize {
		accounts, err := uc.accountRepo.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(accounts) == 0 {
			break
		}

		for _, account := range accounts {
			report, err := uc.ReplayAccount(ctx, account.ID)
			if err != nil {
				return nil, err
			}
			if !report.Consistent {
				drifted = append(drifted, report)
			}
		}

		if len(accounts) < pageSize {
			break
		}
	}

	return drifted, nil
}
