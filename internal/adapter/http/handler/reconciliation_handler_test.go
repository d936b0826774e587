package handler

import (
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

type reconciliationServiceStub struct {
	replayAccountFn func(ctx context.Context, accountID string) (*usecase.DriftReport, error)
	replayAllFn     func(ctx context.Context) ([]*usecase.DriftReport, error)
}

func (s *reconciliationServiceStub) ReplayAccount(ctx context.Context, accountID string) (*usecase.DriftReport, error) {
	return s.replayAccountFn(ctx, accountID)
}

func (s *reconciliationServiceStub) ReplayAll(ctx context.Context) ([]*usecase.DriftReport, error) {
	return s.replayAllFn(ctx)
}

func TestReconciliationHandler_ReplayAccount(t *testing.T) {
	handler := NewReconciliationHandler(&reconciliationServiceStub{
		replayAccountFn: func(ctx context.Context, accountID string) (*usecase.DriftReport, error) {
			return &usecase.DriftReport{
				AccountID:     accountID,
				StoredBalance: decimal.NewFromInt(100),
				ReplayedSum:   decimal.NewFromInt(90),
				Drift:         decimal.NewFromInt(10),
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/reconciliation/acc-1", nil)
	req = setChiURLParam(req, "accountID", "acc-1")
	rec := httptest.NewRecorder()

	handler.ReplayAccount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.DriftReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccountID != "acc-1" || !resp.Drift.Equal(decimal.NewFromInt(10)) || resp.Consistent {
		t.Fatalf("unexpected report: %+v", resp)
	}
}

func TestReconciliationHandler_ReplayAccount_NotFound(t *testing.T) {
	handler := NewReconciliationHandler(&reconciliationServiceStub{
		replayAccountFn: func(ctx context.Context, accountID string) (*usecase.DriftReport, error) {
			return nil, domain.ErrAccountNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/reconciliation/ghost", nil)
	req = setChiURLParam(req, "accountID", "ghost")
	rec := httptest.NewRecorder()

	handler.ReplayAccount(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReconciliationHandler_ReplayAll(t *testing.T) {
	handler := NewReconciliationHandler(&reconciliationServiceStub{
		replayAllFn: func(ctx context.Context) ([]*usecase.DriftReport, error) {
			return []*usecase.DriftReport{
				{AccountID: "acc-1", Drift: decimal.NewFromInt(5)},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/reconciliation", nil)
	rec := httptest.NewRecorder()

	handler.ReplayAll(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Inconsistent []dto.DriftReportResponse `json:"inconsistent"`
		Count        int                       `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Inconsistent) != 1 || resp.Inconsistent[0].AccountID != "acc-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
