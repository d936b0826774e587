package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/infrastructure/logging"
	"github.com/ccmarketers/ledger/internal/infrastructure/metrics"
)

// WithdrawalUseCase runs the payout workflow: users request, admins
// decide, the payment gateway settles.
type WithdrawalUseCase struct {
	txManager      TransactionManager
	withdrawalRepo WithdrawalRepository
	outboxRepo     OutboxRepository
	auditRepo      AuditRepository
	ledger         *LedgerUseCase
	gateway        PaymentGateway
	idGen          IDGenerator
	metrics        *metrics.Metrics
	logger         *logging.Logger
	minWithdrawal  decimal.Decimal
	retrier        Retrier
}

// NewWithdrawalUseCase creates a new WithdrawalUseCase.
func NewWithdrawalUseCase(
	txManager TransactionManager,
	withdrawalRepo WithdrawalRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	ledger *LedgerUseCase,
	gateway PaymentGateway,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger *logging.Logger,
	minWithdrawal decimal.Decimal,
	retrier Retrier,
) *WithdrawalUseCase {
	return &WithdrawalUseCase{
		txManager:      txManager,
		withdrawalRepo: withdrawalRepo,
		outboxRepo:     outboxRepo,
		auditRepo:      auditRepo,
		ledger:         ledger,
		gateway:        gateway,
		idGen:          idGen,
		metrics:        m,
		logger:         logger,
		minWithdrawal:  minWithdrawal,
		retrier:        retrier,
	}
}

// RequestWithdrawalInput represents input for creating a payout request.
type RequestWithdrawalInput struct {
	UserID  string
	Amount  decimal.Decimal
	Details domain.PayoutDetails
}

// RequestWithdrawal creates a PENDING payout request. No funds move yet,
// but the amount must fit inside the balance net of the user's other
// pending requests.
func (uc *WithdrawalUseCase) RequestWithdrawal(ctx context.Context, input RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.Amount.LessThan(uc.minWithdrawal) {
		return nil, domain.ErrBelowMinimum
	}
	if err := domain.ValidateBankAccount(input.Details.AccountNumber); err != nil {
		return nil, err
	}
	if input.Details.BankCode == "" || input.Details.AccountName == "" {
		return nil, domain.ErrInvalidBankAccount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Lock the account so the available check and insert are atomic
	// against a concurrent request or approval.
	account, err := uc.ledger.LockAccountTx(txCtx, tx, input.UserID, domain.AccountKindMain)
	if err != nil {
		return nil, err
	}

	pending, err := uc.withdrawalRepo.SumPendingByUser(txCtx, tx, input.UserID)
	if err != nil {
		return nil, err
	}

	available := account.Balance.Sub(pending)
	if input.Amount.GreaterThan(available) {
		return nil, domain.ErrInsufficientFunds
	}

	req := &domain.WithdrawalRequest{
		ID:        uc.idGen.Generate(),
		UserID:    input.UserID,
		Amount:    input.Amount,
		Method:    domain.WithdrawalMethodBankTransfer,
		Details:   input.Details,
		Status:    domain.WithdrawalStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.withdrawalRepo.Create(txCtx, tx, req); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsRequested.Inc()
	}
	uc.logger.InfoCtx(ctx, "withdrawal requested",
		"withdrawal_id", req.ID,
		"user_id", input.UserID,
		"amount", input.Amount.String(),
	)

	return req, nil
}

// DecideWithdrawalInput represents an admin decision on a request.
type DecideWithdrawalInput struct {
	RequestID string
	AdminID   string
	Notes     string
}

// ApproveWithdrawal approves a pending request: a transfer is initiated
// at the gateway, then the user's main account is debited for the full
// amount in one transaction with the status change. Gateway failure
// leaves the request pending and the balance untouched.
func (uc *WithdrawalUseCase) ApproveWithdrawal(ctx context.Context, input DecideWithdrawalInput) (*domain.WithdrawalRequest, error) {
	req, err := uc.withdrawalRepo.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if !req.CanApprove() {
		return nil, domain.ErrInvalidState
	}

	recipientCode, err := uc.gateway.CreateTransferRecipient(ctx,
		req.Details.BankCode, req.Details.AccountNumber, req.Details.AccountName)
	if err != nil {
		uc.logger.ErrorCtx(ctx, "transfer recipient creation failed",
			"withdrawal_id", req.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
	}

	gatewayRef, err := uc.gateway.InitiateTransfer(ctx, req.Amount, recipientCode,
		fmt.Sprintf("Withdrawal %s", req.ID))
	if err != nil {
		uc.logger.ErrorCtx(ctx, "transfer initiation failed",
			"withdrawal_id", req.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
	}

	err = uc.retry(ctx, func() error {
		var txErr error
		req, txErr = uc.approveWithdrawal(ctx, input, gatewayRef)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsDecided.WithLabelValues("approved").Inc()
	}
	uc.logger.InfoCtx(ctx, "withdrawal approved",
		"withdrawal_id", req.ID,
		"gateway_reference", gatewayRef,
		"admin_id", input.AdminID,
	)

	return req, nil
}

func (uc *WithdrawalUseCase) approveWithdrawal(ctx context.Context, input DecideWithdrawalInput, gatewayRef string) (*domain.WithdrawalRequest, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	req, err := uc.withdrawalRepo.GetByIDForUpdate(txCtx, tx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if !req.CanApprove() {
		return nil, domain.ErrInvalidState
	}

	account, err := uc.ledger.LockAccountTx(txCtx, tx, req.UserID, domain.AccountKindMain)
	if err != nil {
		return nil, err
	}

	debit, err := uc.ledger.DebitTx(txCtx, tx, account, req.Amount, domain.EntryCategoryWithdrawal,
		refPrefixWithdrawal+req.ID,
		fmt.Sprintf("Withdrawal to %s (%s)", req.Details.BankName, req.Details.AccountNumber))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req.Status = domain.WithdrawalStatusApproved
	req.DebitEntryID = &debit.ID
	req.GatewayReference = gatewayRef
	req.ProcessedBy = &input.AdminID
	req.ProcessedAt = &now
	req.AdminNotes = input.Notes

	if err := uc.withdrawalRepo.UpdateDecision(txCtx, tx, req); err != nil {
		return nil, err
	}

	if err := uc.emitEvent(txCtx, tx, domain.EventTypeWithdrawalApproved, req); err != nil {
		return nil, err
	}
	if err := uc.audit(txCtx, tx, domain.AuditActionWithdrawalApprove, input.AdminID, req); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return req, nil
}

// RejectWithdrawal rejects a pending request. Nothing was debited, so
// no ledger movement happens.
func (uc *WithdrawalUseCase) RejectWithdrawal(ctx context.Context, input DecideWithdrawalInput) (*domain.WithdrawalRequest, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	req, err := uc.withdrawalRepo.GetByIDForUpdate(txCtx, tx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if !req.CanReject() {
		return nil, domain.ErrInvalidState
	}

	now := time.Now().UTC()
	req.Status = domain.WithdrawalStatusRejected
	req.ProcessedBy = &input.AdminID
	req.ProcessedAt = &now
	req.AdminNotes = input.Notes

	if err := uc.withdrawalRepo.UpdateDecision(txCtx, tx, req); err != nil {
		return nil, err
	}

	if err := uc.emitEvent(txCtx, tx, domain.EventTypeWithdrawalRejected, req); err != nil {
		return nil, err
	}
	if err := uc.audit(txCtx, tx, domain.AuditActionWithdrawalReject, input.AdminID, req); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsDecided.WithLabelValues("rejected").Inc()
	}
	uc.logger.InfoCtx(ctx, "withdrawal rejected",
		"withdrawal_id", req.ID,
		"admin_id", input.AdminID,
	)

	return req, nil
}

// CompleteTransferTx marks an approved withdrawal COMPLETED after the
// gateway confirms the transfer, inside the caller's transaction.
// Requests already settled are returned unchanged.
func (uc *WithdrawalUseCase) CompleteTransferTx(ctx context.Context, tx Transaction, gatewayRef string) (*domain.WithdrawalRequest, error) {
	req, err := uc.withdrawalRepo.GetByGatewayRefForUpdate(ctx, tx, gatewayRef)
	if err != nil {
		return nil, err
	}
	if req.Status == domain.WithdrawalStatusCompleted {
		return req, nil
	}
	if !req.CanSettle() {
		return nil, domain.ErrInvalidState
	}

	now := time.Now().UTC()
	if err := uc.withdrawalRepo.UpdateSettlement(ctx, tx, req.ID, domain.WithdrawalStatusCompleted, now); err != nil {
		return nil, err
	}
	req.Status = domain.WithdrawalStatusCompleted

	if err := uc.emitEvent(ctx, tx, domain.EventTypeWithdrawalCompleted, req); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsSettled.WithLabelValues("completed").Inc()
	}

	return req, nil
}

// FailTransferTx marks an approved withdrawal FAILED after the gateway
// reports the transfer failed, and returns the debited amount to the
// user with a compensating credit. Idempotent on the refund reference.
func (uc *WithdrawalUseCase) FailTransferTx(ctx context.Context, tx Transaction, gatewayRef string) (*domain.WithdrawalRequest, error) {
	req, err := uc.withdrawalRepo.GetByGatewayRefForUpdate(ctx, tx, gatewayRef)
	if err != nil {
		return nil, err
	}
	if req.Status == domain.WithdrawalStatusFailed {
		return req, nil
	}
	if !req.CanSettle() {
		return nil, domain.ErrInvalidState
	}

	account, err := uc.ledger.LockAccountTx(ctx, tx, req.UserID, domain.AccountKindMain)
	if err != nil {
		return nil, err
	}

	if _, err := uc.ledger.CreditTx(ctx, tx, account, req.Amount, domain.EntryCategoryWithdrawalRefund,
		refPrefixWithdrawalRefund+req.ID,
		fmt.Sprintf("Reversal of failed withdrawal %s", req.ID)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.withdrawalRepo.UpdateSettlement(ctx, tx, req.ID, domain.WithdrawalStatusFailed, now); err != nil {
		return nil, err
	}
	req.Status = domain.WithdrawalStatusFailed

	if err := uc.emitEvent(ctx, tx, domain.EventTypeWithdrawalFailed, req); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsSettled.WithLabelValues("failed").Inc()
	}

	return req, nil
}

// GetWithdrawal retrieves a withdrawal request by ID.
func (uc *WithdrawalUseCase) GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return uc.withdrawalRepo.GetByID(ctx, id)
}

// ListWithdrawalsByUser lists a user's withdrawal requests.
func (uc *WithdrawalUseCase) ListWithdrawalsByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.withdrawalRepo.ListByUser(ctx, userID, limit, offset)
}

// ResolveAccount verifies a bank account at the gateway and returns the
// registered account name.
func (uc *WithdrawalUseCase) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error) {
	if err := domain.ValidateBankAccount(accountNumber); err != nil {
		return "", err
	}

	name, err := uc.gateway.ResolveAccountNumber(ctx, accountNumber, bankCode)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
	}
	return name, nil
}

func (uc *WithdrawalUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func (uc *WithdrawalUseCase) emitEvent(ctx context.Context, tx Transaction, eventType string, req *domain.WithdrawalRequest) error {
	if uc.outboxRepo == nil {
		return nil
	}

	event, err := domain.NewOutboxEvent(uc.idGen.Generate(), domain.AggregateTypeWithdrawal, req.ID, eventType, req)
	if err != nil {
		return err
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *WithdrawalUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, actorID string, req *domain.WithdrawalRequest) error {
	if uc.auditRepo == nil {
		return nil
	}

	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		ActorID:      actorID,
		Action:       string(action),
		ResourceType: domain.AggregateTypeWithdrawal,
		ResourceID:   req.ID,
		AfterState:   domain.MarshalState(req),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}
	return uc.auditRepo.CreateTx(ctx, tx, log)
}
