package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge       = errors.New("amount exceeds maximum allowed")
	ErrInvalidScale         = errors.New("amount has more than two decimal places")
	ErrInvalidBankAccount   = errors.New("invalid bank account number")
	ErrInvalidReference     = errors.New("invalid external reference")
	ErrInvalidReferralLevel = errors.New("referral level out of range")
)

// Validation constants
const (
	MaxAmount          = "1000000000" // 1 billion
	MaxReferenceLength = 100
)

var bankAccountRegex = regexp.MustCompile(`^\d{10}$`)

// ValidateAmount checks that amount is a positive, correctly scaled
// two-decimal fixed-point value within bounds.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if amount.Exponent() < -2 {
		return fmt.Errorf("%w: %s", ErrInvalidScale, amount.String())
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidateReference checks an idempotency reference.
func ValidateReference(ref string) error {
	ref = strings.TrimSpace(ref)

	if ref == "" {
		return fmt.Errorf("%w: reference cannot be empty", ErrInvalidReference)
	}

	if len(ref) > MaxReferenceLength {
		return fmt.Errorf("%w: reference exceeds %d characters", ErrInvalidReference, MaxReferenceLength)
	}

	return nil
}

// ValidateBankAccount checks a Nigerian NUBAN account number.
func ValidateBankAccount(accountNumber string) error {
	if !bankAccountRegex.MatchString(strings.TrimSpace(accountNumber)) {
		return ErrInvalidBankAccount
	}

	return nil
}

// ValidateReferralLevel checks a cascade level.
func ValidateReferralLevel(level int) error {
	if level < 1 || level > MaxReferralLevel {
		return fmt.Errorf("%w: %d", ErrInvalidReferralLevel, level)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
