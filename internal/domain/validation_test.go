package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{"valid whole", "100", nil},
		{"valid two decimals", "99.99", nil},
		{"zero", "0", ErrInvalidAmount},
		{"negative", "-5.00", ErrInvalidAmount},
		{"three decimals", "1.005", ErrInvalidScale},
		{"too large", "1000000001", ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, _ := decimal.NewFromString(tt.amount)
			err := ValidateAmount(amount)

			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReference(t *testing.T) {
	if err := ValidateReference("TASK_PAYMENT_42_S1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateReference(""); err == nil {
		t.Error("empty reference should fail")
	}

	if err := ValidateReference(strings.Repeat("x", MaxReferenceLength+1)); err == nil {
		t.Error("oversized reference should fail")
	}
}

func TestValidateBankAccount(t *testing.T) {
	if err := ValidateBankAccount("0123456789"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	for _, bad := range []string{"12345", "01234567890", "01234abcde", ""} {
		if err := ValidateBankAccount(bad); err == nil {
			t.Errorf("account %q should fail", bad)
		}
	}
}

func TestValidateReferralLevel(t *testing.T) {
	for level := 1; level <= MaxReferralLevel; level++ {
		if err := ValidateReferralLevel(level); err != nil {
			t.Errorf("level %d: unexpected error: %v", level, err)
		}
	}

	for _, bad := range []int{0, -1, 4} {
		if err := ValidateReferralLevel(bad); err == nil {
			t.Errorf("level %d should fail", bad)
		}
	}
}

func TestValidatePagination(t *testing.T) {
	limit, offset := ValidatePagination(0, -3)
	if limit != 50 || offset != 0 {
		t.Errorf("got (%d, %d), want (50, 0)", limit, offset)
	}

	limit, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Errorf("limit = %d, want capped at 1000", limit)
	}
}
