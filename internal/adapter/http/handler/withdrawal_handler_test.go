package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/adapter/http/dto"
	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

type withdrawalServiceStub struct {
	requestFn func(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalRequest, error)
	approveFn func(ctx context.Context, input usecase.DecideWithdrawalInput) (*domain.WithdrawalRequest, error)
	rejectFn  func(ctx context.Context, input usecase.DecideWithdrawalInput) (*domain.WithdrawalRequest, error)
	getFn     func(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	listFn    func(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, error)
	resolveFn func(ctx context.Context, accountNumber, bankCode string) (string, error)
}

func (s *withdrawalServiceStub) RequestWithdrawal(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
	return s.requestFn(ctx, input)
}

func (s *withdrawalServiceStub) ApproveWithdrawal(ctx context.Context, input usecase.DecideWithdrawalInput) (*domain.WithdrawalRequest, error) {
	return s.approveFn(ctx, input)
}

func (s *withdrawalServiceStub) RejectWithdrawal(ctx context.Context, input usecase.DecideWithdrawalInput) (*domain.WithdrawalRequest, error) {
	return s.rejectFn(ctx, input)
}

func (s *withdrawalServiceStub) GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return s.getFn(ctx, id)
}

func (s *withdrawalServiceStub) ListWithdrawalsByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	return s.listFn(ctx, userID, limit, offset)
}

func (s *withdrawalServiceStub) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error) {
	return s.resolveFn(ctx, accountNumber, bankCode)
}

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.data[key], nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func TestWithdrawalHandler_Request_Success(t *testing.T) {
	var captured usecase.RequestWithdrawalInput
	handler := NewWithdrawalHandler(&withdrawalServiceStub{
		requestFn: func(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
			captured = input
			return &domain.WithdrawalRequest{
				ID:     "wd-1",
				UserID: input.UserID,
				Amount: input.Amount,
				Status: domain.WithdrawalStatusPending,
			}, nil
		},
	}, nil)

	body, _ := json.Marshal(dto.RequestWithdrawalRequest{
		UserID:        "user-1",
		Amount:        decimal.NewFromInt(2000),
		AccountNumber: "0123456789",
		AccountName:   "John Doe",
		BankName:      "Test Bank",
		BankCode:      "058",
	})
	req := httptest.NewRequest(http.MethodPost, "/withdrawals", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Request(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if captured.UserID != "user-1" || captured.Details.AccountNumber != "0123456789" || captured.Details.BankCode != "058" {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.WithdrawalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "wd-1" || resp.Status != string(domain.WithdrawalStatusPending) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWithdrawalHandler_Request_BelowMinimum(t *testing.T) {
	handler := NewWithdrawalHandler(&withdrawalServiceStub{
		requestFn: func(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
			return nil, domain.ErrBelowMinimum
		},
	}, nil)

	body, _ := json.Marshal(dto.RequestWithdrawalRequest{UserID: "user-1", Amount: decimal.NewFromInt(10)})
	req := httptest.NewRequest(http.MethodPost, "/withdrawals", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Request(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWithdrawalHandler_Approve_CarriesDecision(t *testing.T) {
	var captured usecase.DecideWithdrawalInput
	handler := NewWithdrawalHandler(&withdrawalServiceStub{
		approveFn: func(ctx context.Context, input usecase.DecideWithdrawalInput) (*domain.WithdrawalRequest, error) {
			captured = input
			return &domain.WithdrawalRequest{ID: input.RequestID, Status: domain.WithdrawalStatusApproved}, nil
		},
	}, nil)

	body, _ := json.Marshal(dto.DecideWithdrawalRequest{AdminID: "admin-1", Notes: "verified"})
	req := httptest.NewRequest(http.MethodPost, "/withdrawals/wd-1/approve", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "wd-1")
	rec := httptest.NewRecorder()

	handler.Approve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.RequestID != "wd-1" || captured.AdminID != "admin-1" || captured.Notes != "verified" {
		t.Fatalf("unexpected input: %+v", captured)
	}
}

func TestWithdrawalHandler_Reject_AlreadyDecided(t *testing.T) {
	handler := NewWithdrawalHandler(&withdrawalServiceStub{
		rejectFn: func(ctx context.Context, input usecase.DecideWithdrawalInput) (*domain.WithdrawalRequest, error) {
			return nil, domain.ErrInvalidState
		},
	}, nil)

	body, _ := json.Marshal(dto.DecideWithdrawalRequest{AdminID: "admin-1"})
	req := httptest.NewRequest(http.MethodPost, "/withdrawals/wd-1/reject", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "wd-1")
	rec := httptest.NewRecorder()

	handler.Reject(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestWithdrawalHandler_ResolveAccount_CachesGatewayAnswer(t *testing.T) {
	calls := 0
	cache := newFakeCache()
	handler := NewWithdrawalHandler(&withdrawalServiceStub{
		resolveFn: func(ctx context.Context, accountNumber, bankCode string) (string, error) {
			calls++
			return "JANE DOE", nil
		},
	}, cache)

	body, _ := json.Marshal(dto.ResolveAccountRequest{AccountNumber: "0123456789", BankCode: "058"})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/banks/resolve", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.ResolveAccount(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp dto.ResolveAccountResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.AccountName != "JANE DOE" {
			t.Fatalf("expected JANE DOE, got %s", resp.AccountName)
		}
	}

	if calls != 1 {
		t.Fatalf("expected gateway to be consulted once, got %d calls", calls)
	}
}

func TestWithdrawalHandler_ResolveAccount_InvalidAccount(t *testing.T) {
	handler := NewWithdrawalHandler(&withdrawalServiceStub{
		resolveFn: func(ctx context.Context, accountNumber, bankCode string) (string, error) {
			return "", domain.ErrInvalidBankAccount
		},
	}, nil)

	body, _ := json.Marshal(dto.ResolveAccountRequest{AccountNumber: "000", BankCode: "058"})
	req := httptest.NewRequest(http.MethodPost, "/banks/resolve", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ResolveAccount(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
