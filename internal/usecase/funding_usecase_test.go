package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
	"github.com/ccmarketers/ledger/internal/usecase/mocks"
)

func TestFundingUseCase_InitiateFunding(t *testing.T) {
	ctx := context.Background()

	t.Run("records a pending credit keyed by the gateway reference", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		entryRepo := mocks.NewMockEntryRepository()
		gateway := mocks.NewMockPaymentGateway()
		uc := usecase.NewFundingUseCase(newLedger(accRepo, entryRepo), gateway, testLogger())

		session, err := uc.InitiateFunding(ctx, usecase.InitiateFundingInput{
			UserID: "user-1",
			Amount: decimal.NewFromInt(250),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.AuthorizationURL == "" {
			t.Error("expected authorization URL")
		}
		if session.Entry.Status != domain.EntryStatusPending {
			t.Errorf("expected pending entry, got %s", session.Entry.Status)
		}
		if session.Entry.ExternalRef == nil || *session.Entry.ExternalRef != session.Reference {
			t.Error("entry not keyed by gateway reference")
		}

		account, _ := accRepo.GetByOwnerAndKind(ctx, "user-1", domain.AccountKindMain)
		if !account.Balance.IsZero() {
			t.Errorf("funding must stay pending until the callback, got balance %s", account.Balance)
		}
	})

	t.Run("gateway failure creates nothing", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		entryRepo := mocks.NewMockEntryRepository()
		gateway := mocks.NewMockPaymentGateway()
		gateway.InitializePaymentFunc = func(ctx context.Context, userID string, amount decimal.Decimal, callbackURL string) (*usecase.GatewayAuthorization, error) {
			return nil, errors.New("gateway down")
		}
		uc := usecase.NewFundingUseCase(newLedger(accRepo, entryRepo), gateway, testLogger())

		_, err := uc.InitiateFunding(ctx, usecase.InitiateFundingInput{
			UserID: "user-1",
			Amount: decimal.NewFromInt(250),
		})
		if !errors.Is(err, domain.ErrGatewayFailure) {
			t.Fatalf("expected ErrGatewayFailure, got %v", err)
		}
		if len(entryRepo.Entries()) != 0 {
			t.Error("entry created despite gateway failure")
		}
	})
}

func TestFundingUseCase_VerifyFunding(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the gateway's view of the payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		gateway := mocks.NewMockGatewayClient(ctrl)
		gateway.EXPECT().VerifyPayment(gomock.Any(), "PS_abc123").Return(&usecase.GatewayPaymentStatus{
			Reference: "PS_abc123",
			Status:    "success",
			Amount:    decimal.NewFromInt(250),
		}, nil)

		uc := usecase.NewFundingUseCase(
			newLedger(mocks.NewMockAccountRepository(), mocks.NewMockEntryRepository()),
			gateway,
			testLogger(),
		)

		status, err := uc.VerifyFunding(ctx, "PS_abc123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.Status != "success" {
			t.Errorf("expected success, got %s", status.Status)
		}
		if !status.Amount.Equal(decimal.NewFromInt(250)) {
			t.Errorf("expected amount 250, got %s", status.Amount)
		}
	})

	t.Run("rejects an empty reference without calling the gateway", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		gateway := mocks.NewMockGatewayClient(ctrl)
		uc := usecase.NewFundingUseCase(
			newLedger(mocks.NewMockAccountRepository(), mocks.NewMockEntryRepository()),
			gateway,
			testLogger(),
		)

		_, err := uc.VerifyFunding(ctx, "  ")
		if !errors.Is(err, domain.ErrInvalidReference) {
			t.Fatalf("expected ErrInvalidReference, got %v", err)
		}
	})
}
