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

type escrowServiceStub struct {
	lockFn    func(ctx context.Context, input usecase.LockEscrowInput) (*domain.EscrowRecord, error)
	releaseFn func(ctx context.Context, input usecase.ReleaseEscrowInput) (*domain.EscrowRecord, error)
	refundFn  func(ctx context.Context, input usecase.RefundEscrowInput) (*domain.EscrowRecord, error)
	getFn     func(ctx context.Context, id string) (*domain.EscrowRecord, error)
	byTaskFn  func(ctx context.Context, taskID string) (*domain.EscrowRecord, error)
	listFn    func(ctx context.Context, advertiserID string, limit, offset int) ([]*domain.EscrowRecord, error)
}

func (s *escrowServiceStub) LockEscrow(ctx context.Context, input usecase.LockEscrowInput) (*domain.EscrowRecord, error) {
	return s.lockFn(ctx, input)
}

func (s *escrowServiceStub) ReleaseEscrow(ctx context.Context, input usecase.ReleaseEscrowInput) (*domain.EscrowRecord, error) {
	return s.releaseFn(ctx, input)
}

func (s *escrowServiceStub) RefundEscrow(ctx context.Context, input usecase.RefundEscrowInput) (*domain.EscrowRecord, error) {
	return s.refundFn(ctx, input)
}

func (s *escrowServiceStub) GetEscrow(ctx context.Context, id string) (*domain.EscrowRecord, error) {
	return s.getFn(ctx, id)
}

func (s *escrowServiceStub) GetEscrowByTask(ctx context.Context, taskID string) (*domain.EscrowRecord, error) {
	return s.byTaskFn(ctx, taskID)
}

func (s *escrowServiceStub) ListEscrowsByAdvertiser(ctx context.Context, advertiserID string, limit, offset int) ([]*domain.EscrowRecord, error) {
	return s.listFn(ctx, advertiserID, limit, offset)
}

func TestEscrowHandler_Lock_Success(t *testing.T) {
	var captured usecase.LockEscrowInput
	handler := NewEscrowHandler(&escrowServiceStub{
		lockFn: func(ctx context.Context, input usecase.LockEscrowInput) (*domain.EscrowRecord, error) {
			captured = input
			return &domain.EscrowRecord{
				ID:     "esc-1",
				TaskID: input.TaskID,
				Amount: input.Amount,
				Status: domain.EscrowStatusLocked,
			}, nil
		},
	})

	body, _ := json.Marshal(dto.LockEscrowRequest{
		TaskID:       "task-1",
		AdvertiserID: "adv-1",
		Amount:       decimal.NewFromInt(1500),
	})
	req := httptest.NewRequest(http.MethodPost, "/escrows", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Lock(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if captured.TaskID != "task-1" || captured.AdvertiserID != "adv-1" {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.EscrowResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "esc-1" || resp.Status != string(domain.EscrowStatusLocked) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEscrowHandler_Lock_AlreadyLocked(t *testing.T) {
	handler := NewEscrowHandler(&escrowServiceStub{
		lockFn: func(ctx context.Context, input usecase.LockEscrowInput) (*domain.EscrowRecord, error) {
			return nil, domain.ErrEscrowExists
		},
	})

	body, _ := json.Marshal(dto.LockEscrowRequest{TaskID: "task-1", AdvertiserID: "adv-1", Amount: decimal.NewFromInt(100)})
	req := httptest.NewRequest(http.MethodPost, "/escrows", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Lock(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestEscrowHandler_Lock_InsufficientFunds(t *testing.T) {
	handler := NewEscrowHandler(&escrowServiceStub{
		lockFn: func(ctx context.Context, input usecase.LockEscrowInput) (*domain.EscrowRecord, error) {
			return nil, domain.ErrInsufficientFunds
		},
	})

	body, _ := json.Marshal(dto.LockEscrowRequest{TaskID: "task-1", AdvertiserID: "adv-1", Amount: decimal.NewFromInt(100)})
	req := httptest.NewRequest(http.MethodPost, "/escrows", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Lock(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestEscrowHandler_Release_CarriesURLParamID(t *testing.T) {
	var captured usecase.ReleaseEscrowInput
	handler := NewEscrowHandler(&escrowServiceStub{
		releaseFn: func(ctx context.Context, input usecase.ReleaseEscrowInput) (*domain.EscrowRecord, error) {
			captured = input
			return &domain.EscrowRecord{ID: input.EscrowID, Status: domain.EscrowStatusReleased}, nil
		},
	})

	body, _ := json.Marshal(dto.ReleaseEscrowRequest{
		WorkerID:     "worker-1",
		SubmissionID: "sub-1",
		ActorID:      "admin-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/escrows/esc-1/release", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "esc-1")
	rec := httptest.NewRecorder()

	handler.Release(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.EscrowID != "esc-1" || captured.WorkerID != "worker-1" || captured.SubmissionID != "sub-1" {
		t.Fatalf("unexpected input: %+v", captured)
	}
}

func TestEscrowHandler_Release_AlreadySettled(t *testing.T) {
	handler := NewEscrowHandler(&escrowServiceStub{
		releaseFn: func(ctx context.Context, input usecase.ReleaseEscrowInput) (*domain.EscrowRecord, error) {
			return nil, domain.ErrDuplicateRelease
		},
	})

	body, _ := json.Marshal(dto.ReleaseEscrowRequest{WorkerID: "worker-1"})
	req := httptest.NewRequest(http.MethodPost, "/escrows/esc-1/release", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "esc-1")
	rec := httptest.NewRecorder()

	handler.Release(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestEscrowHandler_Refund_Success(t *testing.T) {
	var captured usecase.RefundEscrowInput
	handler := NewEscrowHandler(&escrowServiceStub{
		refundFn: func(ctx context.Context, input usecase.RefundEscrowInput) (*domain.EscrowRecord, error) {
			captured = input
			return &domain.EscrowRecord{ID: input.EscrowID, Status: domain.EscrowStatusRefunded}, nil
		},
	})

	body, _ := json.Marshal(dto.RefundEscrowRequest{ActorID: "admin-1"})
	req := httptest.NewRequest(http.MethodPost, "/escrows/esc-2/refund", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "esc-2")
	rec := httptest.NewRecorder()

	handler.Refund(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.EscrowID != "esc-2" || captured.ActorID != "admin-1" {
		t.Fatalf("unexpected input: %+v", captured)
	}
}

func TestEscrowHandler_Get_NotFound(t *testing.T) {
	handler := NewEscrowHandler(&escrowServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.EscrowRecord, error) {
			return nil, domain.ErrEscrowNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/escrows/missing", nil)
	req = setChiURLParam(req, "id", "missing")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEscrowHandler_GetByTask(t *testing.T) {
	handler := NewEscrowHandler(&escrowServiceStub{
		byTaskFn: func(ctx context.Context, taskID string) (*domain.EscrowRecord, error) {
			return &domain.EscrowRecord{ID: "esc-3", TaskID: taskID}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/tasks/task-9/escrow", nil)
	req = setChiURLParam(req, "taskID", "task-9")
	rec := httptest.NewRecorder()

	handler.GetByTask(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.EscrowResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TaskID != "task-9" {
		t.Fatalf("expected task-9, got %s", resp.TaskID)
	}
}
