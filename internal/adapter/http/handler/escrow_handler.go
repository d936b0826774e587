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

// EscrowService defines the behavior needed by EscrowHandler.
type EscrowService interface {
	LockEscrow(ctx context.Context, input usecase.LockEscrowInput) (*domain.EscrowRecord, error)
	ReleaseEscrow(ctx context.Context, input usecase.ReleaseEscrowInput) (*domain.EscrowRecord, error)
	RefundEscrow(ctx context.Context, input usecase.RefundEscrowInput) (*domain.EscrowRecord, error)
	GetEscrow(ctx context.Context, id string) (*domain.EscrowRecord, error)
	GetEscrowByTask(ctx context.Context, taskID string) (*domain.EscrowRecord, error)
	ListEscrowsByAdvertiser(ctx context.Context, advertiserID string, limit, offset int) ([]*domain.EscrowRecord, error)
}

// EscrowHandler handles escrow HTTP requests.
type EscrowHandler struct {
	escrowUC EscrowService
}

// NewEscrowHandler creates a new EscrowHandler.
func NewEscrowHandler(escrowUC EscrowService) *EscrowHandler {
	return &EscrowHandler{escrowUC: escrowUC}
}

// Lock reserves an advertiser's funds against a task.
func (h *EscrowHandler) Lock(w http.ResponseWriter, r *http.Request) {
	var req dto.LockEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	escrow, err := h.escrowUC.LockEscrow(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to lock escrow", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.EscrowFromDomain(escrow))
}

// Release pays a locked escrow out to a worker.
func (h *EscrowHandler) Release(w http.ResponseWriter, r *http.Request) {
	var req dto.ReleaseEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	escrow, err := h.escrowUC.ReleaseEscrow(r.Context(), usecase.ReleaseEscrowInput{
		EscrowID:     chi.URLParam(r, "id"),
		WorkerID:     req.WorkerID,
		SubmissionID: req.SubmissionID,
		ActorID:      req.ActorID,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to release escrow", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EscrowFromDomain(escrow))
}

// Refund returns a locked escrow to the advertiser.
func (h *EscrowHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req dto.RefundEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	escrow, err := h.escrowUC.RefundEscrow(r.Context(), usecase.RefundEscrowInput{
		EscrowID: chi.URLParam(r, "id"),
		ActorID:  req.ActorID,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to refund escrow", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EscrowFromDomain(escrow))
}

// Get retrieves an escrow by ID.
func (h *EscrowHandler) Get(w http.ResponseWriter, r *http.Request) {
	escrow, err := h.escrowUC.GetEscrow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get escrow", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EscrowFromDomain(escrow))
}

// GetByTask retrieves the escrow covering a task.
func (h *EscrowHandler) GetByTask(w http.ResponseWriter, r *http.Request) {
	escrow, err := h.escrowUC.GetEscrowByTask(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get escrow", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EscrowFromDomain(escrow))
}

// ListByAdvertiser lists an advertiser's escrows.
func (h *EscrowHandler) ListByAdvertiser(w http.ResponseWriter, r *http.Request) {
	escrows, err := h.escrowUC.ListEscrowsByAdvertiser(r.Context(),
		chi.URLParam(r, "advertiserID"),
		parseIntQuery(r, "limit", 50),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list escrows", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EscrowsFromDomain(escrows))
}
