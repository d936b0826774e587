package domain

import (
	"encoding/json"
	"time"
)

// Event types
const (
	EventTypeEscrowLocked        = "escrow.locked"
	EventTypeEscrowReleased      = "escrow.released"
	EventTypeEscrowRefunded      = "escrow.refunded"
	EventTypeWithdrawalApproved  = "withdrawal.approved"
	EventTypeWithdrawalRejected  = "withdrawal.rejected"
	EventTypeWithdrawalCompleted = "withdrawal.completed"
	EventTypeWithdrawalFailed    = "withdrawal.failed"
	EventTypeWalletFunded        = "wallet.funded"
	EventTypeEarningCredited     = "referral.earning_credited"
)

// Aggregate types
const (
	AggregateTypeEscrow     = "escrow"
	AggregateTypeWithdrawal = "withdrawal"
	AggregateTypeAccount    = "account"
	AggregateTypeEarning    = "referral_earning"
)

// OutboxEvent represents an event to be published after commit.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewOutboxEvent builds an outbox event, serializing the payload to a
// generic map so it round-trips as JSON.
func NewOutboxEvent(id, aggregateType, aggregateID, eventType string, payload any) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       body,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
