package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

const entryColumns = `id, account_id, direction, category, amount, balance_before, balance_after,
	status, external_ref, related_entry_id, account_version, description, created_at, completed_at`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create inserts a new ledger entry inside the caller's transaction.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO entries (id, account_id, direction, category, amount, balance_before, balance_after,
			status, external_ref, related_entry_id, account_version, description, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		entry.ID,
		entry.AccountID,
		string(entry.Direction),
		entry.Category,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		string(entry.Status),
		entry.ExternalRef,
		entry.RelatedEntryID,
		entry.AccountVersion,
		entry.Description,
		entry.CreatedAt,
		entry.CompletedAt,
	)
	if err != nil && isUniqueViolation(err, "entries_account_direction_ref_key") {
		return domain.ErrDuplicateReference
	}
	return err
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = $1`, id)
	return scanEntry(row)
}

// GetByExternalRef looks up an entry by idempotency reference, scoped to
// account and direction, inside the caller's transaction.
func (r *EntryRepository) GetByExternalRef(ctx context.Context, tx usecase.Transaction, accountID string, direction domain.EntryDirection, ref string) (*domain.Entry, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE account_id = $1 AND direction = $2 AND external_ref = $3`,
		accountID, string(direction), ref)
	return scanEntry(row)
}

// GetByReference finds an entry by external reference and category
// across accounts, used to match gateway callbacks to pending credits.
func (r *EntryRepository) GetByReference(ctx context.Context, tx usecase.Transaction, ref, category string) (*domain.Entry, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE external_ref = $1 AND category = $2
		 ORDER BY created_at LIMIT 1`,
		ref, category)
	return scanEntry(row)
}

// Apply flips a pending entry to success with the balances and account
// version it was applied at. Already-settled entries are left alone.
func (r *EntryRepository) Apply(ctx context.Context, tx usecase.Transaction, id string, balanceBefore, balanceAfter decimal.Decimal, version int64, completedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE entries
		 SET status = $2, balance_before = $3, balance_after = $4, account_version = $5, completed_at = $6
		 WHERE id = $1 AND status = $7`,
		id, string(domain.EntryStatusSuccess), balanceBefore, balanceAfter, version, completedAt,
		string(domain.EntryStatusPending))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// MarkFailed flips a pending entry to failed.
func (r *EntryRepository) MarkFailed(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE entries SET status = $2 WHERE id = $1 AND status = $3`,
		id, string(domain.EntryStatusFailed), string(domain.EntryStatusPending))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// SetCompletedAt stamps an entry's completion time.
func (r *EntryRepository) SetCompletedAt(ctx context.Context, tx usecase.Transaction, id string, completedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE entries SET completed_at = $2 WHERE id = $1`, id, completedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// ListByAccount lists an account's entries, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE account_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SumSuccessByAccount replays the signed amounts of success entries.
func (r *EntryRepository) SumSuccessByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(CASE WHEN direction = 'debit' THEN -amount ELSE amount END), 0)
		 FROM entries
		 WHERE account_id = $1 AND status = $2`,
		accountID, string(domain.EntryStatusSuccess)).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var e domain.Entry
	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.Direction,
		&e.Category,
		&e.Amount,
		&e.BalanceBefore,
		&e.BalanceAfter,
		&e.Status,
		&e.ExternalRef,
		&e.RelatedEntryID,
		&e.AccountVersion,
		&e.Description,
		&e.CreatedAt,
		&e.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
