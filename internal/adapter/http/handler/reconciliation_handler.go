package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ccmarketers/ledger/internal/adapter/http/dto"
	"github.com/ccmarketers/ledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by
// ReconciliationHandler.
type ReconciliationService interface {
	ReplayAccount(ctx context.Context, accountID string) (*usecase.DriftReport, error)
	ReplayAll(ctx context.Context) ([]*usecase.DriftReport, error)
}

// ReconciliationHandler exposes balance replay checks for operators.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// ReplayAccount replays one account's entry chain.
func (h *ReconciliationHandler) ReplayAccount(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.ReplayAccount(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to replay account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DriftReportFromUseCase(report))
}

// ReplayAll reports every account whose balance drifted from its
// entry replay.
func (h *ReconciliationHandler) ReplayAll(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reconUC.ReplayAll(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to replay accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"inconsistent": dto.DriftReportsFromUseCase(reports),
		"count":        len(reports),
	})
}
