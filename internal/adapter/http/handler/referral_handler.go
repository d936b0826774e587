package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ccmarketers/ledger/internal/adapter/http/dto"
	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

// ReferralService defines the behavior needed by ReferralHandler.
type ReferralService interface {
	GetOrCreateCode(ctx context.Context, userID string) (*domain.ReferralCode, error)
	LinkReferral(ctx context.Context, input usecase.LinkReferralInput) ([]*domain.Referral, error)
	ApproveEarning(ctx context.Context, input usecase.ApproveEarningInput) (*domain.ReferralEarning, error)
	CancelEarning(ctx context.Context, input usecase.ApproveEarningInput) (*domain.ReferralEarning, error)
	ListEarnings(ctx context.Context, referrerID string, limit, offset int) ([]*domain.ReferralEarning, error)
	GetStats(ctx context.Context, referrerID string) (*domain.ReferralStats, error)
}

// ReferralHandler handles referral HTTP requests.
type ReferralHandler struct {
	referralUC ReferralService
}

// NewReferralHandler creates a new ReferralHandler.
func NewReferralHandler(referralUC ReferralService) *ReferralHandler {
	return &ReferralHandler{referralUC: referralUC}
}

// GetCode returns the user's referral code, creating one if needed.
func (h *ReferralHandler) GetCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.referralUC.GetOrCreateCode(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get referral code", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReferralCodeFromDomain(code))
}

// Link records the referral edges for a newly signed-up user.
func (h *ReferralHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	referrals, err := h.referralUC.LinkReferral(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to link referral", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReferralsFromDomain(referrals))
}

// ApproveEarning pays a pending earning into the referrer's wallet.
func (h *ReferralHandler) ApproveEarning(w http.ResponseWriter, r *http.Request) {
	h.decideEarning(w, r, h.referralUC.ApproveEarning, "failed to approve earning")
}

// CancelEarning cancels a pending earning.
func (h *ReferralHandler) CancelEarning(w http.ResponseWriter, r *http.Request) {
	h.decideEarning(w, r, h.referralUC.CancelEarning, "failed to cancel earning")
}

func (h *ReferralHandler) decideEarning(w http.ResponseWriter, r *http.Request, decision func(context.Context, usecase.ApproveEarningInput) (*domain.ReferralEarning, error), failMsg string) {
	var req dto.EarningDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	earning, err := decision(r.Context(), usecase.ApproveEarningInput{
		EarningID: chi.URLParam(r, "id"),
		ActorID:   req.ActorID,
	})
	if err != nil {
		writeError(w, mapDomainError(err), failMsg, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EarningFromDomain(earning))
}

// ListEarnings lists a referrer's earnings.
func (h *ReferralHandler) ListEarnings(w http.ResponseWriter, r *http.Request) {
	earnings, err := h.referralUC.ListEarnings(r.Context(),
		chi.URLParam(r, "userID"),
		parseIntQuery(r, "limit", 50),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list earnings", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EarningsFromDomain(earnings))
}

// GetStats summarises a referrer's network and earnings.
func (h *ReferralHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.referralUC.GetStats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get referral stats", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReferralStatsFromDomain(stats))
}
