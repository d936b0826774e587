package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxReferralLevel caps how deep commissions cascade.
const MaxReferralLevel = 3

// EarningType classifies the action that generated a referral earning.
type EarningType string

const (
	EarningTypeSignup       EarningType = "signup"
	EarningTypeTask         EarningType = "task"
	EarningTypeFunding      EarningType = "funding"
	EarningTypeSubscription EarningType = "subscription"
)

// EarningStatus is the lifecycle state of a referral earning.
type EarningStatus string

const (
	EarningStatusPending   EarningStatus = "pending"
	EarningStatusApproved  EarningStatus = "approved"
	EarningStatusPaid      EarningStatus = "paid"
	EarningStatusCancelled EarningStatus = "cancelled"
)

// ReferralCode is a user's shareable signup code.
type ReferralCode struct {
	ID        string
	UserID    string
	Code      string
	Active    bool
	CreatedAt time.Time
}

// Referral is an edge in the referral graph. Level 1 is the direct
// referrer; levels 2 and 3 are the referrer's own uplines. At most one
// edge exists per (referrer, referred) pair.
type Referral struct {
	ID             string
	ReferrerID     string
	ReferredID     string
	Level          int
	ReferralCodeID *string
	Active         bool
	CreatedAt      time.Time
}

// CommissionTier configures the rate for one (level, earning type) pair.
// For signup earnings at levels 2 and 3 the rate is a flat amount, not a
// percentage.
type CommissionTier struct {
	ID          string
	Level       int
	EarningType EarningType
	Rate        decimal.Decimal
	Active      bool
}

// ReferralEarning is a commission owed to a referrer for a referred
// user's qualifying action. Crediting is keyed by the earning ID so
// retries apply at most once.
type ReferralEarning struct {
	ID             string
	ReferrerID     string
	ReferredUserID string
	ReferralID     string
	Level          int
	Amount         decimal.Decimal
	CommissionRate decimal.Decimal
	EarningType    EarningType
	Status         EarningStatus
	EntryID        *string
	CreatedAt      time.Time
	ApprovedAt     *time.Time
}

// CanApprove reports whether the earning may be approved and paid out.
func (e *ReferralEarning) CanApprove() bool {
	return e.Status == EarningStatusPending || e.Status == EarningStatusApproved
}

// CanCancel reports whether the earning may be cancelled.
func (e *ReferralEarning) CanCancel() bool {
	return e.Status == EarningStatusPending
}

// ReferralStats summarises a referrer's network and earnings.
type ReferralStats struct {
	TotalReferrals    int
	DirectReferrals   int
	IndirectReferrals int
	PendingEarnings   decimal.Decimal
	PaidEarnings      decimal.Decimal
	TotalEarnings     decimal.Decimal
}
