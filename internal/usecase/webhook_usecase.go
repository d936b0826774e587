package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/infrastructure/logging"
	"github.com/ccmarketers/ledger/internal/infrastructure/metrics"
)

// ErrInvalidSignature is returned when a webhook's HMAC does not match.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookUseCase ingests gateway callbacks exactly once and reconciles
// them against the ledger.
type WebhookUseCase struct {
	txManager   TransactionManager
	webhookRepo WebhookRepository
	accountRepo AccountRepository
	entryRepo   EntryRepository
	ledger      *LedgerUseCase
	withdrawals *WithdrawalUseCase
	referrals   *ReferralUseCase
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      *logging.Logger
	secret      []byte
}

// NewWebhookUseCase creates a new WebhookUseCase.
func NewWebhookUseCase(
	txManager TransactionManager,
	webhookRepo WebhookRepository,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	ledger *LedgerUseCase,
	withdrawals *WithdrawalUseCase,
	referrals *ReferralUseCase,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger *logging.Logger,
	secret string,
) *WebhookUseCase {
	return &WebhookUseCase{
		txManager:   txManager,
		webhookRepo: webhookRepo,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		ledger:      ledger,
		withdrawals: withdrawals,
		referrals:   referrals,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
		secret:      []byte(secret),
	}
}

// VerifySignature checks the hex-encoded HMAC-SHA512 of the raw request
// body in constant time.
func (uc *WebhookUseCase) VerifySignature(body []byte, signature string) error {
	mac := hmac.New(sha512.New, uc.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// gatewayEnvelope is the common shape of Paystack-style callbacks.
type gatewayEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		// Amount arrives in the gateway's minor unit (kobo).
		Amount int64  `json:"amount"`
		Status string `json:"status"`
	} `json:"data"`
}

// HandleWebhook processes one verified callback. The event row insert
// doubles as the idempotency guard: a redelivered event that was already
// persisted is acknowledged without touching the ledger, and a failed
// handler rolls the row back so the gateway's retry starts clean.
func (uc *WebhookUseCase) HandleWebhook(ctx context.Context, gateway string, body []byte, signature string) (*domain.WebhookResult, error) {
	if err := uc.VerifySignature(body, signature); err != nil {
		if uc.metrics != nil {
			uc.metrics.WebhookFailures.WithLabelValues("signature").Inc()
		}
		return nil, err
	}

	var envelope gatewayEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	if envelope.Data.Reference == "" {
		return nil, domain.ErrInvalidReference
	}

	eventType := normalizeEventType(envelope.Event)
	if uc.metrics != nil {
		uc.metrics.WebhooksReceived.WithLabelValues(gateway, eventType).Inc()
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	event := &domain.WebhookEvent{
		ID:        uc.idGen.Generate(),
		Gateway:   gateway,
		EventType: eventType,
		Reference: envelope.Data.Reference,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}

	inserted, err := uc.webhookRepo.Insert(txCtx, tx, event)
	if err != nil {
		return nil, err
	}
	if !inserted {
		if uc.metrics != nil {
			uc.metrics.WebhookDuplicates.Inc()
		}
		uc.logger.InfoCtx(ctx, "duplicate webhook ignored",
			"gateway", gateway,
			"event_type", eventType,
			"reference", envelope.Data.Reference,
		)
		return &domain.WebhookResult{
			Duplicate: true,
			Message:   "already processed",
			Reference: envelope.Data.Reference,
		}, nil
	}

	message, err := uc.dispatch(txCtx, tx, eventType, &envelope)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.WebhookFailures.WithLabelValues("handler").Inc()
		}
		uc.logger.WarnCtx(ctx, "webhook processing failed",
			"gateway", gateway,
			"event_type", eventType,
			"reference", envelope.Data.Reference,
			"error", err,
		)
		return nil, err
	}

	if err := uc.webhookRepo.MarkProcessed(txCtx, tx, event.ID, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.logger.InfoCtx(ctx, "webhook processed",
		"gateway", gateway,
		"event_type", eventType,
		"reference", envelope.Data.Reference,
	)

	return &domain.WebhookResult{
		Message:   message,
		Reference: envelope.Data.Reference,
	}, nil
}

func normalizeEventType(event string) string {
	switch event {
	case domain.WebhookEventChargeSuccess,
		domain.WebhookEventTransferSuccess,
		domain.WebhookEventTransferFailed:
		return event
	default:
		return domain.WebhookEventOther
	}
}

func (uc *WebhookUseCase) dispatch(ctx context.Context, tx Transaction, eventType string, envelope *gatewayEnvelope) (string, error) {
	switch eventType {
	case domain.WebhookEventChargeSuccess:
		return uc.settleFunding(ctx, tx, envelope)

	case domain.WebhookEventTransferSuccess:
		req, err := uc.withdrawals.CompleteTransferTx(ctx, tx, envelope.Data.Reference)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("withdrawal %s completed", req.ID), nil

	case domain.WebhookEventTransferFailed:
		req, err := uc.withdrawals.FailTransferTx(ctx, tx, envelope.Data.Reference)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("withdrawal %s failed, funds returned", req.ID), nil

	default:
		// Stored for audit, nothing to reconcile.
		return "event recorded", nil
	}
}

// settleFunding flips the pending funding credit matching the gateway
// reference and applies it to the wallet. The gateway amount arrives in
// the minor unit and must cover the entry amount.
func (uc *WebhookUseCase) settleFunding(ctx context.Context, tx Transaction, envelope *gatewayEnvelope) (string, error) {
	entry, err := uc.entryRepo.GetByReference(ctx, tx, envelope.Data.Reference, domain.EntryCategoryFunding)
	if err != nil {
		return "", err
	}
	if entry.Status == domain.EntryStatusSuccess {
		return "funding already applied", nil
	}

	paid := decimal.NewFromInt(envelope.Data.Amount).Div(decimal.NewFromInt(100))
	if paid.LessThan(entry.Amount) {
		return "", fmt.Errorf("amount mismatch for %s: paid %s, expected %s: %w",
			envelope.Data.Reference, paid, entry.Amount, domain.ErrInvalidAmount)
	}

	account, err := uc.accountRepo.GetByID(ctx, entry.AccountID)
	if err != nil {
		return "", err
	}

	locked, err := uc.ledger.LockAccountTx(ctx, tx, account.OwnerID, account.Kind)
	if err != nil {
		return "", err
	}

	if _, err := uc.ledger.ApplyPendingTx(ctx, tx, locked, entry); err != nil {
		return "", err
	}

	if uc.referrals != nil {
		if err := uc.referrals.CascadeTx(ctx, tx, account.OwnerID, domain.EarningTypeFunding, entry.Amount, envelope.Data.Reference); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("funding %s applied", envelope.Data.Reference), nil
}
