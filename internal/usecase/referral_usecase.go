package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/infrastructure/logging"
	"github.com/ccmarketers/ledger/internal/infrastructure/metrics"
)

const referralCodeLength = 8

// ReferralUseCase maintains the referral graph and cascades commissions
// to up to three upline levels on qualifying actions.
type ReferralUseCase struct {
	txManager    TransactionManager
	referralRepo ReferralRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	ledger       *LedgerUseCase
	idGen        IDGenerator
	metrics      *metrics.Metrics
	logger       *logging.Logger
	signupBonus  decimal.Decimal
}

// NewReferralUseCase creates a new ReferralUseCase.
func NewReferralUseCase(
	txManager TransactionManager,
	referralRepo ReferralRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	ledger *LedgerUseCase,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger *logging.Logger,
	signupBonus decimal.Decimal,
) *ReferralUseCase {
	return &ReferralUseCase{
		txManager:    txManager,
		referralRepo: referralRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		idGen:        idGen,
		metrics:      m,
		logger:       logger,
		signupBonus:  signupBonus,
	}
}

// GetOrCreateCode returns the user's active referral code, generating
// one on first use.
func (uc *ReferralUseCase) GetOrCreateCode(ctx context.Context, userID string) (*domain.ReferralCode, error) {
	code, err := uc.referralRepo.GetActiveCodeByUser(ctx, userID)
	if err == nil {
		return code, nil
	}
	if !errors.Is(err, domain.ErrReferralCodeNotFound) {
		return nil, err
	}

	code = &domain.ReferralCode{
		ID:        uc.idGen.Generate(),
		UserID:    userID,
		Code:      generateReferralCode(),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.referralRepo.CreateCode(ctx, code); err != nil {
		return nil, err
	}

	return code, nil
}

// No ambiguous characters, codes get read over the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateReferralCode() string {
	buf := make([]byte, referralCodeLength)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

// LinkReferralInput represents input for attaching a new user to a
// referrer's network.
type LinkReferralInput struct {
	Code       string
	ReferredID string
}

// LinkReferral records the referral edges for a newly signed-up user:
// level 1 to the code's owner, levels 2 and 3 to the owner's own
// uplines. Signup bonuses are awarded in the same pass.
func (uc *ReferralUseCase) LinkReferral(ctx context.Context, input LinkReferralInput) ([]*domain.Referral, error) {
	code, err := uc.referralRepo.GetCodeByCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}
	if code.UserID == input.ReferredID {
		return nil, domain.ErrSelfReferral
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	var edges []*domain.Referral
	referrerID := code.UserID
	codeID := code.ID

	for level := 1; level <= domain.MaxReferralLevel; level++ {
		edge := &domain.Referral{
			ID:         uc.idGen.Generate(),
			ReferrerID: referrerID,
			ReferredID: input.ReferredID,
			Level:      level,
			Active:     true,
			CreatedAt:  time.Now().UTC(),
		}
		if level == 1 {
			edge.ReferralCodeID = &codeID
		}

		inserted, err := uc.referralRepo.CreateReferral(txCtx, tx, edge)
		if err != nil {
			return nil, err
		}
		if inserted {
			edges = append(edges, edge)
		}

		upline, err := uc.referralRepo.GetDirectReferrer(txCtx, referrerID)
		if errors.Is(err, domain.ErrReferralNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		referrerID = upline.ReferrerID
	}

	if err := uc.awardTx(txCtx, tx, input.ReferredID, domain.EarningTypeSignup, decimal.Zero, edges); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.logger.InfoCtx(ctx, "referral linked",
		"referred_id", input.ReferredID,
		"code", input.Code,
		"levels", len(edges),
	)

	return edges, nil
}

// Award cascades commissions for a qualifying action in its own
// transaction.
func (uc *ReferralUseCase) Award(ctx context.Context, earnerID string, earningType domain.EarningType, baseAmount decimal.Decimal) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.CascadeTx(txCtx, tx, earnerID, earningType, baseAmount, ""); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// CascadeTx cascades commissions for a qualifying action inside the
// caller's transaction. Levels without an active tier are skipped.
func (uc *ReferralUseCase) CascadeTx(ctx context.Context, tx Transaction, earnerID string, earningType domain.EarningType, baseAmount decimal.Decimal, sourceRef string) error {
	edges, err := uc.referralRepo.ListByReferred(ctx, earnerID)
	if err != nil {
		return err
	}

	return uc.awardTx(ctx, tx, earnerID, earningType, baseAmount, edges)
}

func (uc *ReferralUseCase) awardTx(ctx context.Context, tx Transaction, earnerID string, earningType domain.EarningType, baseAmount decimal.Decimal, edges []*domain.Referral) error {
	for _, edge := range edges {
		if !edge.Active || edge.Level < 1 || edge.Level > domain.MaxReferralLevel {
			continue
		}

		if earningType == domain.EarningTypeSignup {
			exists, err := uc.referralRepo.HasSignupEarning(ctx, tx, edge.ReferrerID, earnerID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
		}

		amount, rate, status, err := uc.commissionFor(ctx, edge.Level, earningType, baseAmount)
		if err != nil {
			if errors.Is(err, domain.ErrTierNotConfigured) {
				continue
			}
			return err
		}
		if !amount.IsPositive() {
			continue
		}

		earning := &domain.ReferralEarning{
			ID:             uc.idGen.Generate(),
			ReferrerID:     edge.ReferrerID,
			ReferredUserID: earnerID,
			ReferralID:     edge.ID,
			Level:          edge.Level,
			Amount:         amount,
			CommissionRate: rate,
			EarningType:    earningType,
			Status:         status,
			CreatedAt:      time.Now().UTC(),
		}

		// The insert is the dedup guard for signup pairs; the credit
		// only happens once the row is won.
		inserted, err := uc.referralRepo.CreateEarning(ctx, tx, earning)
		if err != nil {
			return err
		}
		if !inserted {
			continue
		}

		if status == domain.EarningStatusApproved {
			// Direct signup bonuses pay out immediately.
			if err := uc.creditEarningTx(ctx, tx, earning); err != nil {
				return err
			}
			if err := uc.referralRepo.UpdateEarning(ctx, tx, earning); err != nil {
				return err
			}
		}

		if uc.metrics != nil {
			uc.metrics.ReferralEarnings.WithLabelValues(fmt.Sprintf("%d", edge.Level), string(earningType)).Inc()
		}
	}

	return nil
}

// commissionFor computes the commission amount for one level. Level 1
// signups pay the configured flat bonus; signup tiers at levels 2 and 3
// treat the tier rate as a flat amount; everything else is a percentage
// of the base.
func (uc *ReferralUseCase) commissionFor(ctx context.Context, level int, earningType domain.EarningType, baseAmount decimal.Decimal) (decimal.Decimal, decimal.Decimal, domain.EarningStatus, error) {
	if earningType == domain.EarningTypeSignup && level == 1 {
		return uc.signupBonus, decimal.Zero, domain.EarningStatusApproved, nil
	}

	tier, err := uc.referralRepo.GetTier(ctx, level, earningType)
	if err != nil {
		return decimal.Zero, decimal.Zero, "", err
	}
	if !tier.Active {
		return decimal.Zero, decimal.Zero, "", domain.ErrTierNotConfigured
	}

	if earningType == domain.EarningTypeSignup {
		return tier.Rate, tier.Rate, domain.EarningStatusPending, nil
	}

	amount := baseAmount.Mul(tier.Rate).Div(decimal.NewFromInt(100)).Round(2)
	return amount, tier.Rate, domain.EarningStatusPending, nil
}

// creditEarningTx applies an earning to the referrer's main account.
// The entry is keyed by the earning ID, so a replayed credit returns
// the existing entry instead of paying twice.
func (uc *ReferralUseCase) creditEarningTx(ctx context.Context, tx Transaction, earning *domain.ReferralEarning) error {
	account, err := uc.ledger.LockAccountTx(ctx, tx, earning.ReferrerID, domain.AccountKindMain)
	if err != nil {
		return err
	}

	entry, err := uc.ledger.CreditTx(ctx, tx, account, earning.Amount, domain.EntryCategoryReferralBonus,
		refPrefixReferral+earning.ID,
		fmt.Sprintf("Level %d %s referral commission", earning.Level, earning.EarningType))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	earning.EntryID = &entry.ID
	earning.ApprovedAt = &now

	if uc.outboxRepo != nil {
		event, err := domain.NewOutboxEvent(uc.idGen.Generate(), domain.AggregateTypeEarning, earning.ID, domain.EventTypeEarningCredited, earning)
		if err != nil {
			return err
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}
	}

	return nil
}

// ApproveEarningInput represents input for paying out a pending earning.
type ApproveEarningInput struct {
	EarningID string
	ActorID   string
}

// ApproveEarning pays a pending earning into the referrer's main
// account and marks it paid. Safe to retry: the credit is keyed by the
// earning ID.
func (uc *ReferralUseCase) ApproveEarning(ctx context.Context, input ApproveEarningInput) (*domain.ReferralEarning, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	earning, err := uc.referralRepo.GetEarningByIDForUpdate(txCtx, tx, input.EarningID)
	if err != nil {
		return nil, err
	}
	if earning.Status == domain.EarningStatusPaid {
		return earning, nil
	}
	if !earning.CanApprove() {
		return nil, domain.ErrInvalidState
	}

	if err := uc.creditEarningTx(txCtx, tx, earning); err != nil {
		return nil, err
	}

	earning.Status = domain.EarningStatusPaid
	if err := uc.referralRepo.UpdateEarning(txCtx, tx, earning); err != nil {
		return nil, err
	}

	if err := uc.audit(txCtx, tx, domain.AuditActionEarningApprove, input.ActorID, earning); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.logger.InfoCtx(ctx, "referral earning paid",
		"earning_id", earning.ID,
		"referrer_id", earning.ReferrerID,
		"amount", earning.Amount.String(),
	)

	return earning, nil
}

// CancelEarning cancels a pending earning before payout.
func (uc *ReferralUseCase) CancelEarning(ctx context.Context, input ApproveEarningInput) (*domain.ReferralEarning, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	earning, err := uc.referralRepo.GetEarningByIDForUpdate(txCtx, tx, input.EarningID)
	if err != nil {
		return nil, err
	}
	if !earning.CanCancel() {
		return nil, domain.ErrInvalidState
	}

	earning.Status = domain.EarningStatusCancelled
	if err := uc.referralRepo.UpdateEarning(txCtx, tx, earning); err != nil {
		return nil, err
	}

	if err := uc.audit(txCtx, tx, domain.AuditActionEarningCancel, input.ActorID, earning); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return earning, nil
}

// ListEarnings lists a referrer's earnings.
func (uc *ReferralUseCase) ListEarnings(ctx context.Context, referrerID string, limit, offset int) ([]*domain.ReferralEarning, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.referralRepo.ListEarningsByReferrer(ctx, referrerID, limit, offset)
}

// GetStats summarises a referrer's network and earnings.
func (uc *ReferralUseCase) GetStats(ctx context.Context, referrerID string) (*domain.ReferralStats, error) {
	return uc.referralRepo.StatsByReferrer(ctx, referrerID)
}

func (uc *ReferralUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, actorID string, earning *domain.ReferralEarning) error {
	if uc.auditRepo == nil {
		return nil
	}

	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		ActorID:      actorID,
		Action:       string(action),
		ResourceType: domain.AggregateTypeEarning,
		ResourceID:   earning.ID,
		AfterState:   domain.MarshalState(earning),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}
	return uc.auditRepo.CreateTx(ctx, tx, log)
}
