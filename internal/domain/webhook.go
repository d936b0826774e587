package domain

import "time"

// Webhook event types we dispatch on. Anything else is stored as "other".
const (
	WebhookEventChargeSuccess   = "charge.success"
	WebhookEventTransferSuccess = "transfer.success"
	WebhookEventTransferFailed  = "transfer.failed"
	WebhookEventOther           = "other"
)

// WebhookEvent is one gateway callback. Uniqueness on
// (gateway, reference, event type) is enforced by the insert itself, so
// concurrent redeliveries cannot both proceed.
type WebhookEvent struct {
	ID          string
	Gateway     string
	EventType   string
	Reference   string
	Payload     []byte
	Processed   bool
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// WebhookResult reports what processing an event did.
type WebhookResult struct {
	Duplicate bool
	Message   string
	Reference string
}
