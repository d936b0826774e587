package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/infrastructure/logging"
)

// FundingUseCase starts gateway-backed wallet top-ups. The credit stays
// pending until the gateway's charge.success callback reconciles it.
type FundingUseCase struct {
	ledger  *LedgerUseCase
	gateway PaymentGateway
	logger  *logging.Logger
}

// NewFundingUseCase creates a new FundingUseCase.
func NewFundingUseCase(ledger *LedgerUseCase, gateway PaymentGateway, logger *logging.Logger) *FundingUseCase {
	return &FundingUseCase{
		ledger:  ledger,
		gateway: gateway,
		logger:  logger,
	}
}

// InitiateFundingInput represents input for starting a wallet top-up.
type InitiateFundingInput struct {
	UserID      string
	Amount      decimal.Decimal
	CallbackURL string
}

// FundingSession is a started top-up awaiting payment.
type FundingSession struct {
	AuthorizationURL string
	Reference        string
	Entry            *domain.Entry
}

// InitiateFunding initializes a payment at the gateway and records a
// pending credit keyed by the gateway's reference.
func (uc *FundingUseCase) InitiateFunding(ctx context.Context, input InitiateFundingInput) (*FundingSession, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	auth, err := uc.gateway.InitializePayment(ctx, input.UserID, input.Amount, input.CallbackURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
	}

	entry, err := uc.ledger.CreatePendingCredit(ctx, MovementInput{
		OwnerID:     input.UserID,
		Kind:        domain.AccountKindMain,
		Amount:      input.Amount,
		Category:    domain.EntryCategoryFunding,
		ExternalRef: auth.Reference,
		Description: fmt.Sprintf("Wallet funding %s", auth.Reference),
	})
	if err != nil {
		return nil, err
	}

	uc.logger.InfoCtx(ctx, "funding initiated",
		"user_id", input.UserID,
		"reference", auth.Reference,
		"amount", input.Amount.String(),
	)

	return &FundingSession{
		AuthorizationURL: auth.AuthorizationURL,
		Reference:        auth.Reference,
		Entry:            entry,
	}, nil
}

// VerifyFunding checks a funding reference directly against the gateway,
// used when a callback may have been missed.
func (uc *FundingUseCase) VerifyFunding(ctx context.Context, reference string) (*GatewayPaymentStatus, error) {
	if err := domain.ValidateReference(reference); err != nil {
		return nil, err
	}

	status, err := uc.gateway.VerifyPayment(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
	}
	return status, nil
}
