package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind distinguishes the three wallet types a balance can live in.
type AccountKind string

const (
	// AccountKindMain is a user's general spendable balance.
	AccountKindMain AccountKind = "main"
	// AccountKindTask is an advertiser-only balance that funds task escrows.
	AccountKindTask AccountKind = "task"
	// AccountKindPlatform is the system-owned account receiving commission fees.
	AccountKindPlatform AccountKind = "platform"
)

var validKinds = map[AccountKind]bool{
	AccountKindMain:     true,
	AccountKindTask:     true,
	AccountKindPlatform: true,
}

// IsValid checks if the kind is a known account kind.
func (k AccountKind) IsValid() bool {
	return validKinds[k]
}

// Account is a per-owner, per-kind balance. At most one account exists
// for each (owner, kind) pair; accounts are created lazily and never deleted.
type Account struct {
	ID                   string
	OwnerID              string
	Kind                 AccountKind
	Balance              decimal.Decimal
	Version              int64
	AllowNegativeBalance bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ValidateDebit checks if the account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	newBalance := a.Balance.Sub(amount)
	if !a.AllowNegativeBalance && newBalance.IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns the new balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the new balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
