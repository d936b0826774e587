package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, &chi.Context{
		URLParams: chi.RouteParams{
			Keys:   []string{key},
			Values: []string{value},
		},
	}))
}

func TestMapDomainError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"escrow not found", domain.ErrEscrowNotFound, http.StatusNotFound},
		{"duplicate release", domain.ErrDuplicateRelease, http.StatusConflict},
		{"escrow exists", domain.ErrEscrowExists, http.StatusConflict},
		{"duplicate reference", domain.ErrDuplicateReference, http.StatusConflict},
		{"invalid state", domain.ErrInvalidState, http.StatusConflict},
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"below minimum", domain.ErrBelowMinimum, http.StatusBadRequest},
		{"self referral", domain.ErrSelfReferral, http.StatusBadRequest},
		{"invalid signature", usecase.ErrInvalidSignature, http.StatusUnauthorized},
		{"busy", domain.ErrBusy, http.StatusServiceUnavailable},
		{"gateway failure", domain.ErrGatewayFailure, http.StatusBadGateway},
		{"unknown", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapDomainError(tc.err); got != tc.want {
				t.Fatalf("expected %d for %v, got %d", tc.want, tc.err, got)
			}
		})
	}
}
