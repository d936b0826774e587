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

const withdrawalColumns = `id, user_id, amount, method, account_number, account_name, bank_name,
	bank_code, status, debit_entry_id, gateway_reference, processed_by, processed_at, admin_notes, created_at`

// WithdrawalRepository implements usecase.WithdrawalRepository.
type WithdrawalRepository struct {
	pool *pgxpool.Pool
}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(pool *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{pool: pool}
}

// Create inserts a new withdrawal request.
func (r *WithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, req *domain.WithdrawalRequest) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO withdrawal_requests (id, user_id, amount, method, account_number, account_name,
			bank_name, bank_code, status, debit_entry_id, gateway_reference, processed_by,
			processed_at, admin_notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		req.ID,
		req.UserID,
		req.Amount,
		string(req.Method),
		req.Details.AccountNumber,
		req.Details.AccountName,
		req.Details.BankName,
		req.Details.BankCode,
		string(req.Status),
		req.DebitEntryID,
		nullableString(req.GatewayReference),
		req.ProcessedBy,
		req.ProcessedAt,
		req.AdminNotes,
		req.CreatedAt,
	)
	return err
}

// GetByID retrieves a withdrawal request by ID.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id)
	return scanWithdrawal(row)
}

// GetByIDForUpdate retrieves a withdrawal request with a FOR UPDATE lock.
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRequest, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id)

	req, err := scanWithdrawal(row)
	if err != nil {
		return nil, mapLockError(err)
	}
	return req, nil
}

// GetByGatewayRefForUpdate locks the request matching a gateway transfer
// reference, used when settling webhook callbacks.
func (r *WithdrawalRepository) GetByGatewayRefForUpdate(ctx context.Context, tx usecase.Transaction, ref string) (*domain.WithdrawalRequest, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests
		 WHERE gateway_reference = $1 FOR UPDATE`, ref)

	req, err := scanWithdrawal(row)
	if err != nil {
		return nil, mapLockError(err)
	}
	return req, nil
}

// SumPendingByUser totals a user's pending withdrawal requests inside
// the caller's transaction.
func (r *WithdrawalRepository) SumPendingByUser(ctx context.Context, tx usecase.Transaction, userID string) (decimal.Decimal, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var sum decimal.Decimal
	err := pgxTx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests
		 WHERE user_id = $1 AND status = $2`,
		userID, string(domain.WithdrawalStatusPending)).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// UpdateDecision persists an admin approval or rejection.
func (r *WithdrawalRepository) UpdateDecision(ctx context.Context, tx usecase.Transaction, req *domain.WithdrawalRequest) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE withdrawal_requests
		 SET status = $2, debit_entry_id = $3, gateway_reference = $4,
			 processed_by = $5, processed_at = $6, admin_notes = $7
		 WHERE id = $1 AND status = $8`,
		req.ID,
		string(req.Status),
		req.DebitEntryID,
		nullableString(req.GatewayReference),
		req.ProcessedBy,
		req.ProcessedAt,
		req.AdminNotes,
		string(domain.WithdrawalStatusPending),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// UpdateSettlement finalises an approved request from a gateway webhook.
func (r *WithdrawalRepository) UpdateSettlement(ctx context.Context, tx usecase.Transaction, id string, status domain.WithdrawalStatus, processedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE withdrawal_requests
		 SET status = $2, processed_at = $3
		 WHERE id = $1 AND status = $4`,
		id, string(status), processedAt, string(domain.WithdrawalStatusApproved))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// ListByUser lists a user's withdrawal requests, newest first.
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*domain.WithdrawalRequest
	for rows.Next() {
		req, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	var (
		w          domain.WithdrawalRequest
		gatewayRef *string
	)
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.Amount,
		&w.Method,
		&w.Details.AccountNumber,
		&w.Details.AccountName,
		&w.Details.BankName,
		&w.Details.BankCode,
		&w.Status,
		&w.DebitEntryID,
		&gatewayRef,
		&w.ProcessedBy,
		&w.ProcessedAt,
		&w.AdminNotes,
		&w.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, err
	}
	if gatewayRef != nil {
		w.GatewayReference = *gatewayRef
	}
	return &w, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
