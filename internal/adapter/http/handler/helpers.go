package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ccmarketers/ledger/internal/adapter/http/dto"
	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrEscrowNotFound),
		errors.Is(err, domain.ErrWithdrawalNotFound),
		errors.Is(err, domain.ErrEarningNotFound),
		errors.Is(err, domain.ErrReferralCodeNotFound),
		errors.Is(err, domain.ErrReferralNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEscrowExists),
		errors.Is(err, domain.ErrDuplicateRelease),
		errors.Is(err, domain.ErrDuplicateReference),
		errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrBelowMinimum),
		errors.Is(err, domain.ErrInvalidBankAccount),
		errors.Is(err, domain.ErrInvalidReference),
		errors.Is(err, domain.ErrSelfReferral),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrTierNotConfigured):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrGatewayFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
