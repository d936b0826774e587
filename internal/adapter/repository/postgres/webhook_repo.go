package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

// WebhookRepository implements usecase.WebhookRepository.
type WebhookRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookRepository creates a new WebhookRepository.
func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

// Insert stores a webhook event. The insert itself is the idempotency
// guard: ON CONFLICT on (gateway, reference, event_type) makes the
// second delivery report zero rows, and because this runs inside the
// caller's transaction a concurrent duplicate blocks on the conflicting
// row until the first delivery commits.
func (r *WebhookRepository) Insert(ctx context.Context, tx usecase.Transaction, event *domain.WebhookEvent) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`INSERT INTO webhook_events (id, gateway, event_type, reference, payload, processed, processed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (gateway, reference, event_type) DO NOTHING`,
		event.ID,
		event.Gateway,
		event.EventType,
		event.Reference,
		event.Payload,
		event.Processed,
		event.ProcessedAt,
		event.CreatedAt,
	)
	if err != nil {
		return false, mapLockError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkProcessed flags an event as handled.
func (r *WebhookRepository) MarkProcessed(ctx context.Context, tx usecase.Transaction, id string, processedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`UPDATE webhook_events SET processed = TRUE, processed_at = $2 WHERE id = $1`,
		id, processedAt)
	return err
}

// GetByKey retrieves an event by its idempotency key.
func (r *WebhookRepository) GetByKey(ctx context.Context, gateway, reference, eventType string) (*domain.WebhookEvent, error) {
	var e domain.WebhookEvent
	err := r.pool.QueryRow(ctx,
		`SELECT id, gateway, event_type, reference, payload, processed, processed_at, created_at
		 FROM webhook_events
		 WHERE gateway = $1 AND reference = $2 AND event_type = $3`,
		gateway, reference, eventType).Scan(
		&e.ID,
		&e.Gateway,
		&e.EventType,
		&e.Reference,
		&e.Payload,
		&e.Processed,
		&e.ProcessedAt,
		&e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWebhookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
