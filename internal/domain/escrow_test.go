package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestEscrowRecord_IsTerminal(t *testing.T) {
	tests := []struct {
		status EscrowStatus
		want   bool
	}{
		{EscrowStatusLocked, false},
		{EscrowStatusReleased, true},
		{EscrowStatusRefunded, true},
	}

	for _, tt := range tests {
		e := &EscrowRecord{Status: tt.status}
		if got := e.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestEscrowRecord_Validate(t *testing.T) {
	e := &EscrowRecord{Amount: decimal.NewFromInt(100)}
	if err := e.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	e.Amount = decimal.Zero
	if err := e.Validate(); err == nil {
		t.Error("zero amount should fail")
	}
}

func TestWithdrawalRequest_Transitions(t *testing.T) {
	pending := &WithdrawalRequest{Status: WithdrawalStatusPending}
	if !pending.CanApprove() || !pending.CanReject() {
		t.Error("pending request should be approvable and rejectable")
	}
	if pending.CanSettle() {
		t.Error("pending request should not be settleable")
	}

	approved := &WithdrawalRequest{Status: WithdrawalStatusApproved}
	if approved.CanApprove() || approved.CanReject() {
		t.Error("approved request should not re-enter admin decisions")
	}
	if !approved.CanSettle() {
		t.Error("approved request should be settleable by gateway callback")
	}

	for _, s := range []WithdrawalStatus{WithdrawalStatusRejected, WithdrawalStatusCompleted, WithdrawalStatusFailed} {
		terminal := &WithdrawalRequest{Status: s}
		if terminal.CanApprove() || terminal.CanReject() || terminal.CanSettle() {
			t.Errorf("status %s should be terminal", s)
		}
	}
}
