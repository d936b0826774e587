package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/adapter/http/dto"
	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

type walletServiceStub struct {
	getBalanceFn  func(ctx context.Context, ownerID string, kind domain.AccountKind) (decimal.Decimal, error)
	listEntriesFn func(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.Entry, error)
	transferFn    func(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
}

func (s *walletServiceStub) GetBalance(ctx context.Context, ownerID string, kind domain.AccountKind) (decimal.Decimal, error) {
	return s.getBalanceFn(ctx, ownerID, kind)
}

func (s *walletServiceStub) ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.Entry, error) {
	return s.listEntriesFn(ctx, input)
}

func (s *walletServiceStub) Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error) {
	return s.transferFn(ctx, input)
}

type fundingServiceStub struct {
	initiateFn func(ctx context.Context, input usecase.InitiateFundingInput) (*usecase.FundingSession, error)
	verifyFn   func(ctx context.Context, reference string) (*usecase.GatewayPaymentStatus, error)
}

func (s *fundingServiceStub) InitiateFunding(ctx context.Context, input usecase.InitiateFundingInput) (*usecase.FundingSession, error) {
	return s.initiateFn(ctx, input)
}

func (s *fundingServiceStub) VerifyFunding(ctx context.Context, reference string) (*usecase.GatewayPaymentStatus, error) {
	return s.verifyFn(ctx, reference)
}

func TestWalletHandler_GetBalance_DefaultsToMainKind(t *testing.T) {
	var capturedKind domain.AccountKind
	handler := NewWalletHandler(&walletServiceStub{
		getBalanceFn: func(ctx context.Context, ownerID string, kind domain.AccountKind) (decimal.Decimal, error) {
			capturedKind = kind
			return decimal.RequireFromString("125.50"), nil
		},
	}, &fundingServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/wallets/user-1/balance", nil)
	req = setChiURLParam(req, "ownerID", "user-1")
	rec := httptest.NewRecorder()

	handler.GetBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if capturedKind != domain.AccountKindMain {
		t.Fatalf("expected kind to default to main, got %s", capturedKind)
	}

	var resp dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.OwnerID != "user-1" || !resp.Balance.Equal(decimal.RequireFromString("125.50")) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWalletHandler_GetBalance_KindQueryOverride(t *testing.T) {
	var capturedKind domain.AccountKind
	handler := NewWalletHandler(&walletServiceStub{
		getBalanceFn: func(ctx context.Context, ownerID string, kind domain.AccountKind) (decimal.Decimal, error) {
			capturedKind = kind
			return decimal.Zero, nil
		},
	}, &fundingServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/wallets/user-1/balance?kind=task", nil)
	req = setChiURLParam(req, "ownerID", "user-1")
	rec := httptest.NewRecorder()

	handler.GetBalance(rec, req)

	if capturedKind != domain.AccountKindTask {
		t.Fatalf("expected task kind, got %s", capturedKind)
	}
}

func TestWalletHandler_GetBalance_NotFound(t *testing.T) {
	handler := NewWalletHandler(&walletServiceStub{
		getBalanceFn: func(ctx context.Context, ownerID string, kind domain.AccountKind) (decimal.Decimal, error) {
			return decimal.Zero, domain.ErrAccountNotFound
		},
	}, &fundingServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/wallets/ghost/balance", nil)
	req = setChiURLParam(req, "ownerID", "ghost")
	rec := httptest.NewRecorder()

	handler.GetBalance(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWalletHandler_ListEntries(t *testing.T) {
	var captured usecase.ListEntriesInput
	handler := NewWalletHandler(&walletServiceStub{
		listEntriesFn: func(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.Entry, error) {
			captured = input
			return []*domain.Entry{{ID: "ent-1", Amount: decimal.NewFromInt(10)}}, nil
		},
	}, &fundingServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/accounts/acc-1/entries?limit=5&offset=10", nil)
	req = setChiURLParam(req, "accountID", "acc-1")
	rec := httptest.NewRecorder()

	handler.ListEntries(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.AccountID != "acc-1" || captured.Limit != 5 || captured.Offset != 10 {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.ListEntriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].ID != "ent-1" {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}
}

func TestWalletHandler_Transfer_Success(t *testing.T) {
	var captured usecase.TransferInput
	handler := NewWalletHandler(&walletServiceStub{
		transferFn: func(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error) {
			captured = input
			return &usecase.TransferResult{
				DebitEntry:  &domain.Entry{ID: "ent-d", Direction: domain.EntryDirectionDebit},
				CreditEntry: &domain.Entry{ID: "ent-c", Direction: domain.EntryDirectionCredit},
			}, nil
		},
	}, &fundingServiceStub{})

	body, _ := json.Marshal(dto.WalletTransferRequest{
		OwnerID:  "adv-1",
		FromKind: "main",
		ToKind:   "task",
		Amount:   decimal.RequireFromString("250.00"),
	})
	req := httptest.NewRequest(http.MethodPost, "/wallets/transfer", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Transfer(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if captured.OwnerID != "adv-1" || captured.FromKind != domain.AccountKindMain || captured.ToKind != domain.AccountKindTask {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.WalletTransferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.DebitEntry.ID != "ent-d" || resp.CreditEntry.ID != "ent-c" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWalletHandler_Transfer_SameWallet(t *testing.T) {
	handler := NewWalletHandler(&walletServiceStub{
		transferFn: func(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error) {
			return nil, domain.ErrSameAccount
		},
	}, &fundingServiceStub{})

	body, _ := json.Marshal(dto.WalletTransferRequest{
		OwnerID:  "adv-1",
		FromKind: "main",
		ToKind:   "main",
		Amount:   decimal.NewFromInt(10),
	})
	req := httptest.NewRequest(http.MethodPost, "/wallets/transfer", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Transfer(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWalletHandler_InitiateFunding_Success(t *testing.T) {
	var captured usecase.InitiateFundingInput
	handler := NewWalletHandler(&walletServiceStub{}, &fundingServiceStub{
		initiateFn: func(ctx context.Context, input usecase.InitiateFundingInput) (*usecase.FundingSession, error) {
			captured = input
			return &usecase.FundingSession{
				AuthorizationURL: "https://checkout.paystack.com/abc",
				Reference:        "PS_ref",
				Entry:            &domain.Entry{ID: "ent-1", Status: domain.EntryStatusPending},
			}, nil
		},
	})

	body, _ := json.Marshal(dto.InitiateFundingRequest{
		UserID: "user-1",
		Amount: decimal.NewFromInt(5000),
	})
	req := httptest.NewRequest(http.MethodPost, "/funding", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.InitiateFunding(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if captured.UserID != "user-1" || !captured.Amount.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.FundingSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Reference != "PS_ref" {
		t.Fatalf("expected reference PS_ref, got %s", resp.Reference)
	}
}

func TestWalletHandler_InitiateFunding_InvalidBody(t *testing.T) {
	handler := NewWalletHandler(&walletServiceStub{}, &fundingServiceStub{
		initiateFn: func(ctx context.Context, input usecase.InitiateFundingInput) (*usecase.FundingSession, error) {
			t.Fatal("InitiateFunding should not be called")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/funding", bytes.NewBufferString("{bad json"))
	rec := httptest.NewRecorder()

	handler.InitiateFunding(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWalletHandler_VerifyFunding_GatewayDown(t *testing.T) {
	handler := NewWalletHandler(&walletServiceStub{}, &fundingServiceStub{
		verifyFn: func(ctx context.Context, reference string) (*usecase.GatewayPaymentStatus, error) {
			return nil, domain.ErrGatewayFailure
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/funding/PS_ref", nil)
	req = setChiURLParam(req, "reference", "PS_ref")
	rec := httptest.NewRecorder()

	handler.VerifyFunding(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
