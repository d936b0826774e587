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

const escrowColumns = `id, task_id, advertiser_id, payer_account_id, amount, debit_entry_id,
	status, submission_id, created_at, released_at`

// EscrowRepository implements usecase.EscrowRepository.
type EscrowRepository struct {
	pool *pgxpool.Pool
}

// NewEscrowRepository creates a new EscrowRepository.
func NewEscrowRepository(pool *pgxpool.Pool) *EscrowRepository {
	return &EscrowRepository{pool: pool}
}

// Create inserts a new escrow. The partial unique index on task_id for
// locked rows turns a concurrent double-lock into ErrEscrowExists.
func (r *EscrowRepository) Create(ctx context.Context, tx usecase.Transaction, escrow *domain.EscrowRecord) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO escrows (id, task_id, advertiser_id, payer_account_id, amount, debit_entry_id,
			status, submission_id, created_at, released_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		escrow.ID,
		escrow.TaskID,
		escrow.AdvertiserID,
		escrow.PayerAccountID,
		escrow.Amount,
		escrow.DebitEntryID,
		string(escrow.Status),
		escrow.SubmissionID,
		escrow.CreatedAt,
		escrow.ReleasedAt,
	)
	if err != nil && isUniqueViolation(err, "escrows_task_locked_key") {
		return domain.ErrEscrowExists
	}
	return err
}

// GetByID retrieves an escrow by ID.
func (r *EscrowRepository) GetByID(ctx context.Context, id string) (*domain.EscrowRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+escrowColumns+` FROM escrows WHERE id = $1`, id)
	return scanEscrow(row)
}

// GetByIDForUpdate retrieves an escrow by ID with a FOR UPDATE lock.
func (r *EscrowRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.EscrowRecord, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+escrowColumns+` FROM escrows WHERE id = $1 FOR UPDATE`, id)

	escrow, err := scanEscrow(row)
	if err != nil {
		return nil, mapLockError(err)
	}
	return escrow, nil
}

// GetByTaskID retrieves the most recent escrow for a task.
func (r *EscrowRepository) GetByTaskID(ctx context.Context, taskID string) (*domain.EscrowRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+escrowColumns+` FROM escrows
		 WHERE task_id = $1
		 ORDER BY created_at DESC LIMIT 1`, taskID)
	return scanEscrow(row)
}

// UpdateStatus transitions a locked escrow to a terminal status. The
// status guard in the WHERE clause keeps release and refund exactly-once
// even if two transactions race past the usecase check.
func (r *EscrowRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EscrowStatus, submissionID *string, releasedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE escrows
		 SET status = $2, submission_id = COALESCE($3, submission_id), released_at = $4
		 WHERE id = $1 AND status = $5`,
		id, string(status), submissionID, releasedAt, string(domain.EscrowStatusLocked))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateRelease
	}
	return nil
}

// ListByAdvertiser lists an advertiser's escrows, newest first.
func (r *EscrowRepository) ListByAdvertiser(ctx context.Context, advertiserID string, limit, offset int) ([]*domain.EscrowRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+escrowColumns+` FROM escrows
		 WHERE advertiser_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		advertiserID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var escrows []*domain.EscrowRecord
	for rows.Next() {
		escrow, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		escrows = append(escrows, escrow)
	}
	return escrows, rows.Err()
}

func scanEscrow(row pgx.Row) (*domain.EscrowRecord, error) {
	var e domain.EscrowRecord
	err := row.Scan(
		&e.ID,
		&e.TaskID,
		&e.AdvertiserID,
		&e.PayerAccountID,
		&e.Amount,
		&e.DebitEntryID,
		&e.Status,
		&e.SubmissionID,
		&e.CreatedAt,
		&e.ReleasedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEscrowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
