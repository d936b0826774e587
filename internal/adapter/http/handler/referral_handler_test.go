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

type referralServiceStub struct {
	getCodeFn func(ctx context.Context, userID string) (*domain.ReferralCode, error)
	linkFn    func(ctx context.Context, input usecase.LinkReferralInput) ([]*domain.Referral, error)
	approveFn func(ctx context.Context, input usecase.ApproveEarningInput) (*domain.ReferralEarning, error)
	cancelFn  func(ctx context.Context, input usecase.ApproveEarningInput) (*domain.ReferralEarning, error)
	listFn    func(ctx context.Context, referrerID string, limit, offset int) ([]*domain.ReferralEarning, error)
	statsFn   func(ctx context.Context, referrerID string) (*domain.ReferralStats, error)
}

func (s *referralServiceStub) GetOrCreateCode(ctx context.Context, userID string) (*domain.ReferralCode, error) {
	return s.getCodeFn(ctx, userID)
}

func (s *referralServiceStub) LinkReferral(ctx context.Context, input usecase.LinkReferralInput) ([]*domain.Referral, error) {
	return s.linkFn(ctx, input)
}

func (s *referralServiceStub) ApproveEarning(ctx context.Context, input usecase.ApproveEarningInput) (*domain.ReferralEarning, error) {
	return s.approveFn(ctx, input)
}

func (s *referralServiceStub) CancelEarning(ctx context.Context, input usecase.ApproveEarningInput) (*domain.ReferralEarning, error) {
	return s.cancelFn(ctx, input)
}

func (s *referralServiceStub) ListEarnings(ctx context.Context, referrerID string, limit, offset int) ([]*domain.ReferralEarning, error) {
	return s.listFn(ctx, referrerID, limit, offset)
}

func (s *referralServiceStub) GetStats(ctx context.Context, referrerID string) (*domain.ReferralStats, error) {
	return s.statsFn(ctx, referrerID)
}

func TestReferralHandler_GetCode(t *testing.T) {
	handler := NewReferralHandler(&referralServiceStub{
		getCodeFn: func(ctx context.Context, userID string) (*domain.ReferralCode, error) {
			return &domain.ReferralCode{ID: "rc-1", UserID: userID, Code: "ABC12345", Active: true}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/users/user-1/referral-code", nil)
	req = setChiURLParam(req, "userID", "user-1")
	rec := httptest.NewRecorder()

	handler.GetCode(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ReferralCodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "ABC12345" || resp.UserID != "user-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestReferralHandler_Link_Success(t *testing.T) {
	var captured usecase.LinkReferralInput
	handler := NewReferralHandler(&referralServiceStub{
		linkFn: func(ctx context.Context, input usecase.LinkReferralInput) ([]*domain.Referral, error) {
			captured = input
			return []*domain.Referral{
				{ID: "ref-1", ReferrerID: "upline-1", ReferredID: input.ReferredID, Level: 1},
				{ID: "ref-2", ReferrerID: "upline-2", ReferredID: input.ReferredID, Level: 2},
			}, nil
		},
	})

	body, _ := json.Marshal(dto.LinkReferralRequest{Code: "ABC12345", ReferredID: "user-9"})
	req := httptest.NewRequest(http.MethodPost, "/referrals/link", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Link(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if captured.Code != "ABC12345" || captured.ReferredID != "user-9" {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp []dto.ReferralResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 || resp[1].Level != 2 {
		t.Fatalf("unexpected referrals: %+v", resp)
	}
}

func TestReferralHandler_Link_SelfReferral(t *testing.T) {
	handler := NewReferralHandler(&referralServiceStub{
		linkFn: func(ctx context.Context, input usecase.LinkReferralInput) ([]*domain.Referral, error) {
			return nil, domain.ErrSelfReferral
		},
	})

	body, _ := json.Marshal(dto.LinkReferralRequest{Code: "ABC12345", ReferredID: "user-1"})
	req := httptest.NewRequest(http.MethodPost, "/referrals/link", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Link(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReferralHandler_ApproveEarning(t *testing.T) {
	var captured usecase.ApproveEarningInput
	handler := NewReferralHandler(&referralServiceStub{
		approveFn: func(ctx context.Context, input usecase.ApproveEarningInput) (*domain.ReferralEarning, error) {
			captured = input
			return &domain.ReferralEarning{ID: input.EarningID, Status: domain.EarningStatusPaid}, nil
		},
	})

	body, _ := json.Marshal(dto.EarningDecisionRequest{ActorID: "admin-1"})
	req := httptest.NewRequest(http.MethodPost, "/earnings/earn-1/approve", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "earn-1")
	rec := httptest.NewRecorder()

	handler.ApproveEarning(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.EarningID != "earn-1" || captured.ActorID != "admin-1" {
		t.Fatalf("unexpected input: %+v", captured)
	}
}

func TestReferralHandler_CancelEarning_AlreadyPaid(t *testing.T) {
	handler := NewReferralHandler(&referralServiceStub{
		cancelFn: func(ctx context.Context, input usecase.ApproveEarningInput) (*domain.ReferralEarning, error) {
			return nil, domain.ErrInvalidState
		},
	})

	body, _ := json.Marshal(dto.EarningDecisionRequest{ActorID: "admin-1"})
	req := httptest.NewRequest(http.MethodPost, "/earnings/earn-1/cancel", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "earn-1")
	rec := httptest.NewRecorder()

	handler.CancelEarning(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestReferralHandler_GetStats(t *testing.T) {
	handler := NewReferralHandler(&referralServiceStub{
		statsFn: func(ctx context.Context, referrerID string) (*domain.ReferralStats, error) {
			return &domain.ReferralStats{
				TotalReferrals:  4,
				DirectReferrals: 3,
				PendingEarnings: decimal.NewFromInt(750),
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/users/user-1/referral-stats", nil)
	req = setChiURLParam(req, "userID", "user-1")
	rec := httptest.NewRecorder()

	handler.GetStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ReferralStatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalReferrals != 4 || !resp.PendingEarnings.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("unexpected stats: %+v", resp)
	}
}
