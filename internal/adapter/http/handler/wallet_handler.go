package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/adapter/http/dto"
	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

// WalletService defines ledger behavior needed by WalletHandler.
type WalletService interface {
	GetBalance(ctx context.Context, ownerID string, kind domain.AccountKind) (decimal.Decimal, error)
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.Entry, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
}

// FundingService defines funding behavior needed by WalletHandler.
type FundingService interface {
	InitiateFunding(ctx context.Context, input usecase.InitiateFundingInput) (*usecase.FundingSession, error)
	VerifyFunding(ctx context.Context, reference string) (*usecase.GatewayPaymentStatus, error)
}

// WalletHandler handles wallet balance and funding requests.
type WalletHandler struct {
	wallets WalletService
	funding FundingService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallets WalletService, funding FundingService) *WalletHandler {
	return &WalletHandler{wallets: wallets, funding: funding}
}

// GetBalance returns one wallet balance. Kind defaults to main.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	kind := domain.AccountKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = domain.AccountKindMain
	}

	balance, err := h.wallets.GetBalance(r.Context(), ownerID, kind)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		OwnerID: ownerID,
		Kind:    string(kind),
		Balance: balance,
	})
}

// ListEntries lists an account's ledger entries.
func (h *WalletHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.wallets.ListEntries(r.Context(), usecase.ListEntriesInput{
		AccountID: chi.URLParam(r, "accountID"),
		Limit:     parseIntQuery(r, "limit", 50),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}

// Transfer moves funds between two wallets of the same owner, such as
// topping up the task wallet from the main balance.
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.WalletTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.wallets.Transfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.WalletTransferFromUseCase(result))
}

// InitiateFunding starts a gateway checkout for a wallet top-up.
func (h *WalletHandler) InitiateFunding(w http.ResponseWriter, r *http.Request) {
	var req dto.InitiateFundingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	session, err := h.funding.InitiateFunding(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to initiate funding", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.FundingSessionFromUseCase(session))
}

// VerifyFunding queries the gateway for a funding reference's status.
func (h *WalletHandler) VerifyFunding(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		writeError(w, http.StatusBadRequest, "missing reference", "")
		return
	}

	status, err := h.funding.VerifyFunding(r.Context(), reference)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to verify funding", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reference": status.Reference,
		"status":    status.Status,
		"amount":    status.Amount,
	})
}
