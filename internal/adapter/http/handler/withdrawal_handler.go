package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ccmarketers/ledger/internal/adapter/http/dto"
	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

const resolveCacheTTL = 10 * time.Minute

// WithdrawalService defines the behavior needed by WithdrawalHandler.
type WithdrawalService interface {
	RequestWithdrawal(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, input usecase.DecideWithdrawalInput) (*domain.WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, input usecase.DecideWithdrawalInput) (*domain.WithdrawalRequest, error)
	GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	ListWithdrawalsByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, error)
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error)
}

// WithdrawalHandler handles withdrawal HTTP requests.
type WithdrawalHandler struct {
	withdrawalUC WithdrawalService
	cache        usecase.Cache
}

// NewWithdrawalHandler creates a new WithdrawalHandler. cache may be
// nil, in which case account resolution always hits the gateway.
func NewWithdrawalHandler(withdrawalUC WithdrawalService, cache usecase.Cache) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalUC: withdrawalUC, cache: cache}
}

// Request opens a payout request.
func (h *WithdrawalHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req dto.RequestWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	withdrawal, err := h.withdrawalUC.RequestWithdrawal(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to request withdrawal", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.WithdrawalFromDomain(withdrawal))
}

// Approve approves a pending request and starts the gateway transfer.
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.withdrawalUC.ApproveWithdrawal, "failed to approve withdrawal")
}

// Reject rejects a pending request.
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.withdrawalUC.RejectWithdrawal, "failed to reject withdrawal")
}

func (h *WithdrawalHandler) decide(w http.ResponseWriter, r *http.Request, decision func(context.Context, usecase.DecideWithdrawalInput) (*domain.WithdrawalRequest, error), failMsg string) {
	var req dto.DecideWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	withdrawal, err := decision(r.Context(), usecase.DecideWithdrawalInput{
		RequestID: chi.URLParam(r, "id"),
		AdminID:   req.AdminID,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, mapDomainError(err), failMsg, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalFromDomain(withdrawal))
}

// Get retrieves a withdrawal request by ID.
func (h *WithdrawalHandler) Get(w http.ResponseWriter, r *http.Request) {
	withdrawal, err := h.withdrawalUC.GetWithdrawal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get withdrawal", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalFromDomain(withdrawal))
}

// ListByUser lists a user's withdrawal requests.
func (h *WithdrawalHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.withdrawalUC.ListWithdrawalsByUser(r.Context(),
		chi.URLParam(r, "userID"),
		parseIntQuery(r, "limit", 50),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list withdrawals", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalsFromDomain(withdrawals))
}

// ResolveAccount resolves a bank account number to its holder's name,
// caching gateway answers since account names rarely change.
func (h *WithdrawalHandler) ResolveAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	cacheKey := "resolve:" + req.BankCode + ":" + req.AccountNumber
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), cacheKey); err == nil && len(cached) > 0 {
			writeJSON(w, http.StatusOK, dto.ResolveAccountResponse{
				AccountNumber: req.AccountNumber,
				BankCode:      req.BankCode,
				AccountName:   string(cached),
			})
			return
		}
	}

	name, err := h.withdrawalUC.ResolveAccount(r.Context(), req.AccountNumber, req.BankCode)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve account", err.Error())
		return
	}

	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cacheKey, []byte(name), resolveCacheTTL)
	}

	writeJSON(w, http.StatusOK, dto.ResolveAccountResponse{
		AccountNumber: req.AccountNumber,
		BankCode:      req.BankCode,
		AccountName:   name,
	})
}
