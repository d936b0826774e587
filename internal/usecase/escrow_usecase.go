package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/infrastructure/logging"
	"github.com/ccmarketers/ledger/internal/infrastructure/metrics"
)

// CommissionCascader credits referral commissions for a worker's task
// earning inside the caller's transaction.
type CommissionCascader interface {
	CascadeTx(ctx context.Context, tx Transaction, earnerID string, earningType domain.EarningType, baseAmount decimal.Decimal, sourceRef string) error
}

// EscrowUseCase locks task budgets and settles them to workers or back
// to advertisers.
type EscrowUseCase struct {
	txManager    TransactionManager
	escrowRepo   EscrowRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	ledger       *LedgerUseCase
	cascader     CommissionCascader
	idGen        IDGenerator
	metrics      *metrics.Metrics
	logger       *logging.Logger
	platformRate decimal.Decimal
	retrier      Retrier
}

// NewEscrowUseCase creates a new EscrowUseCase.
func NewEscrowUseCase(
	txManager TransactionManager,
	escrowRepo EscrowRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	ledger *LedgerUseCase,
	cascader CommissionCascader,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger *logging.Logger,
	platformRate decimal.Decimal,
	retrier Retrier,
) *EscrowUseCase {
	return &EscrowUseCase{
		txManager:    txManager,
		escrowRepo:   escrowRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		cascader:     cascader,
		idGen:        idGen,
		metrics:      m,
		logger:       logger,
		platformRate: platformRate,
		retrier:      retrier,
	}
}

// LockEscrowInput represents input for locking a task budget.
type LockEscrowInput struct {
	TaskID       string
	AdvertiserID string
	Amount       decimal.Decimal
}

// LockEscrow debits the advertiser's task wallet and creates a LOCKED
// escrow record. A task can hold at most one live escrow.
func (uc *EscrowUseCase) LockEscrow(ctx context.Context, input LockEscrowInput) (*domain.EscrowRecord, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.TaskID == "" || input.AdvertiserID == "" {
		return nil, domain.ErrInvalidReference
	}

	existing, err := uc.escrowRepo.GetByTaskID(ctx, input.TaskID)
	if err == nil && !existing.IsTerminal() {
		return nil, domain.ErrEscrowExists
	}
	if err != nil && !errors.Is(err, domain.ErrEscrowNotFound) {
		return nil, err
	}

	var escrow *domain.EscrowRecord
	err = uc.retry(ctx, func() error {
		var txErr error
		escrow, txErr = uc.lockEscrow(ctx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EscrowsLocked.Inc()
	}
	uc.logger.InfoCtx(ctx, "escrow locked",
		"escrow_id", escrow.ID,
		"task_id", input.TaskID,
		"amount", input.Amount.String(),
	)

	return escrow, nil
}

func (uc *EscrowUseCase) lockEscrow(ctx context.Context, input LockEscrowInput) (*domain.EscrowRecord, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	payer, err := uc.ledger.LockAccountTx(txCtx, tx, input.AdvertiserID, domain.AccountKindTask)
	if err != nil {
		return nil, err
	}

	// References are keyed by escrow ID, not task ID: a task may hold a
	// new escrow after a refund, and that lifecycle must carry its own
	// debit instead of resolving to the previous cycle's entry.
	escrowID := uc.idGen.Generate()
	ref := refPrefixEscrowLock + escrowID
	debit, err := uc.ledger.DebitTx(txCtx, tx, payer, input.Amount, domain.EntryCategoryEscrow, ref,
		fmt.Sprintf("Escrow lock for task %s", input.TaskID))
	if err != nil {
		return nil, err
	}

	escrow := &domain.EscrowRecord{
		ID:             escrowID,
		TaskID:         input.TaskID,
		AdvertiserID:   input.AdvertiserID,
		PayerAccountID: payer.ID,
		Amount:         input.Amount,
		DebitEntryID:   debit.ID,
		Status:         domain.EscrowStatusLocked,
		CreatedAt:      time.Now().UTC(),
	}
	if err := escrow.Validate(); err != nil {
		return nil, err
	}

	if err := uc.escrowRepo.Create(txCtx, tx, escrow); err != nil {
		return nil, err
	}

	if err := uc.emitEvent(txCtx, tx, domain.EventTypeEscrowLocked, escrow); err != nil {
		return nil, err
	}
	if err := uc.audit(txCtx, tx, domain.AuditActionEscrowCreate, input.AdvertiserID, escrow); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return escrow, nil
}

// ReleaseEscrowInput represents input for releasing an escrow to a worker.
type ReleaseEscrowInput struct {
	EscrowID     string
	WorkerID     string
	SubmissionID string
	ActorID      string
}

// ReleaseEscrow settles a locked escrow to a worker: the worker's main
// account is credited with the amount minus the platform commission, and
// the commission is credited to the platform account. Exactly one of
// release or refund can ever succeed for an escrow.
func (uc *EscrowUseCase) ReleaseEscrow(ctx context.Context, input ReleaseEscrowInput) (*domain.EscrowRecord, error) {
	if input.WorkerID == "" {
		return nil, domain.ErrInvalidReference
	}

	var escrow *domain.EscrowRecord
	err := uc.retry(ctx, func() error {
		var txErr error
		escrow, txErr = uc.releaseEscrow(ctx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EscrowsReleased.Inc()
		uc.metrics.EscrowDuration.Observe(time.Since(escrow.CreatedAt).Seconds())
	}
	uc.logger.InfoCtx(ctx, "escrow released",
		"escrow_id", escrow.ID,
		"task_id", escrow.TaskID,
		"worker_id", input.WorkerID,
	)

	return escrow, nil
}

func (uc *EscrowUseCase) releaseEscrow(ctx context.Context, input ReleaseEscrowInput) (*domain.EscrowRecord, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	escrow, err := uc.escrowRepo.GetByIDForUpdate(txCtx, tx, input.EscrowID)
	if err != nil {
		return nil, err
	}
	switch escrow.Status {
	case domain.EscrowStatusLocked:
	case domain.EscrowStatusReleased:
		return nil, domain.ErrDuplicateRelease
	default:
		return nil, domain.ErrInvalidState
	}

	workerShare, platformFee := domain.Split(escrow.Amount, uc.platformRate)

	settleKey := escrow.ID
	if input.SubmissionID != "" {
		settleKey = escrow.ID + "_" + input.SubmissionID
	}

	accounts, err := uc.ledger.LockAccountsTx(txCtx, tx, []AccountKey{
		{OwnerID: input.WorkerID, Kind: domain.AccountKindMain},
		{OwnerID: uc.ledger.platformOwnerID, Kind: domain.AccountKindPlatform},
	})
	if err != nil {
		return nil, err
	}
	worker := accounts[AccountKey{OwnerID: input.WorkerID, Kind: domain.AccountKindMain}]
	platform := accounts[AccountKey{OwnerID: uc.ledger.platformOwnerID, Kind: domain.AccountKindPlatform}]

	if _, err := uc.ledger.CreditTx(txCtx, tx, worker, workerShare, domain.EntryCategoryTaskEarning,
		refPrefixTaskPayment+settleKey,
		fmt.Sprintf("Payment for task %s", escrow.TaskID)); err != nil {
		return nil, err
	}

	if platformFee.IsPositive() {
		if _, err := uc.ledger.CreditTx(txCtx, tx, platform, platformFee, domain.EntryCategoryPlatformFee,
			refPrefixPlatformFee+settleKey,
			fmt.Sprintf("Platform commission for task %s", escrow.TaskID)); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	var submissionID *string
	if input.SubmissionID != "" {
		submissionID = &input.SubmissionID
	}
	if err := uc.escrowRepo.UpdateStatus(txCtx, tx, escrow.ID, domain.EscrowStatusReleased, submissionID, now); err != nil {
		return nil, err
	}
	escrow.Status = domain.EscrowStatusReleased
	escrow.SubmissionID = submissionID
	escrow.ReleasedAt = &now

	if uc.cascader != nil {
		if err := uc.cascader.CascadeTx(txCtx, tx, input.WorkerID, domain.EarningTypeTask, workerShare, escrow.TaskID); err != nil {
			return nil, err
		}
	}

	if err := uc.emitEvent(txCtx, tx, domain.EventTypeEscrowReleased, escrow); err != nil {
		return nil, err
	}
	if err := uc.audit(txCtx, tx, domain.AuditActionEscrowRelease, input.ActorID, escrow); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return escrow, nil
}

// RefundEscrowInput represents input for refunding an escrow.
type RefundEscrowInput struct {
	EscrowID string
	ActorID  string
}

// RefundEscrow returns a locked escrow's full amount to the
// advertiser's task wallet.
func (uc *EscrowUseCase) RefundEscrow(ctx context.Context, input RefundEscrowInput) (*domain.EscrowRecord, error) {
	var escrow *domain.EscrowRecord
	err := uc.retry(ctx, func() error {
		var txErr error
		escrow, txErr = uc.refundEscrow(ctx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EscrowsRefunded.Inc()
		uc.metrics.EscrowDuration.Observe(time.Since(escrow.CreatedAt).Seconds())
	}
	uc.logger.InfoCtx(ctx, "escrow refunded",
		"escrow_id", escrow.ID,
		"task_id", escrow.TaskID,
	)

	return escrow, nil
}

func (uc *EscrowUseCase) refundEscrow(ctx context.Context, input RefundEscrowInput) (*domain.EscrowRecord, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	escrow, err := uc.escrowRepo.GetByIDForUpdate(txCtx, tx, input.EscrowID)
	if err != nil {
		return nil, err
	}
	if escrow.Status != domain.EscrowStatusLocked {
		return nil, domain.ErrInvalidState
	}

	payer, err := uc.ledger.LockAccountTx(txCtx, tx, escrow.AdvertiserID, domain.AccountKindTask)
	if err != nil {
		return nil, err
	}

	if _, err := uc.ledger.CreditTx(txCtx, tx, payer, escrow.Amount, domain.EntryCategoryRefund,
		refPrefixEscrowRefund+escrow.ID,
		fmt.Sprintf("Refund for task %s", escrow.TaskID)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.escrowRepo.UpdateStatus(txCtx, tx, escrow.ID, domain.EscrowStatusRefunded, nil, now); err != nil {
		return nil, err
	}
	escrow.Status = domain.EscrowStatusRefunded
	escrow.ReleasedAt = &now

	if err := uc.emitEvent(txCtx, tx, domain.EventTypeEscrowRefunded, escrow); err != nil {
		return nil, err
	}
	if err := uc.audit(txCtx, tx, domain.AuditActionEscrowRefund, input.ActorID, escrow); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return escrow, nil
}

// GetEscrow retrieves an escrow by ID.
func (uc *EscrowUseCase) GetEscrow(ctx context.Context, id string) (*domain.EscrowRecord, error) {
	return uc.escrowRepo.GetByID(ctx, id)
}

// GetEscrowByTask retrieves the escrow for a task.
func (uc *EscrowUseCase) GetEscrowByTask(ctx context.Context, taskID string) (*domain.EscrowRecord, error) {
	return uc.escrowRepo.GetByTaskID(ctx, taskID)
}

// ListEscrowsByAdvertiser lists an advertiser's escrows.
func (uc *EscrowUseCase) ListEscrowsByAdvertiser(ctx context.Context, advertiserID string, limit, offset int) ([]*domain.EscrowRecord, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.escrowRepo.ListByAdvertiser(ctx, advertiserID, limit, offset)
}

func (uc *EscrowUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func (uc *EscrowUseCase) emitEvent(ctx context.Context, tx Transaction, eventType string, escrow *domain.EscrowRecord) error {
	if uc.outboxRepo == nil {
		return nil
	}

	event, err := domain.NewOutboxEvent(uc.idGen.Generate(), domain.AggregateTypeEscrow, escrow.ID, eventType, escrow)
	if err != nil {
		return err
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *EscrowUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, actorID string, escrow *domain.EscrowRecord) error {
	if uc.auditRepo == nil {
		return nil
	}

	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		ActorID:      actorID,
		Action:       string(action),
		ResourceType: domain.AggregateTypeEscrow,
		ResourceID:   escrow.ID,
		AfterState:   domain.MarshalState(escrow),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}
	if uc.metrics != nil {
		uc.metrics.AuditLogsCreated.WithLabelValues(string(action)).Inc()
	}
	return uc.auditRepo.CreateTx(ctx, tx, log)
}
