package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

const earningColumns = `id, referrer_id, referred_user_id, referral_id, level, amount,
	commission_rate, earning_type, status, entry_id, created_at, approved_at`

// ReferralRepository implements usecase.ReferralRepository.
type ReferralRepository struct {
	pool *pgxpool.Pool
}

// NewReferralRepository creates a new ReferralRepository.
func NewReferralRepository(pool *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{pool: pool}
}

// CreateCode inserts a referral code.
func (r *ReferralRepository) CreateCode(ctx context.Context, code *domain.ReferralCode) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO referral_codes (id, user_id, code, active, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		code.ID, code.UserID, code.Code, code.Active, code.CreatedAt)
	return err
}

// GetCodeByCode retrieves a referral code by its shareable code string.
func (r *ReferralRepository) GetCodeByCode(ctx context.Context, code string) (*domain.ReferralCode, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, code, active, created_at FROM referral_codes WHERE code = $1`, code)
	return scanReferralCode(row)
}

// GetActiveCodeByUser retrieves a user's active referral code.
func (r *ReferralRepository) GetActiveCodeByUser(ctx context.Context, userID string) (*domain.ReferralCode, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, code, active, created_at FROM referral_codes
		 WHERE user_id = $1 AND active ORDER BY created_at DESC LIMIT 1`, userID)
	return scanReferralCode(row)
}

// CreateReferral inserts a referral edge, ignoring duplicates on the
// (referrer, referred) pair. Returns whether a row was inserted.
func (r *ReferralRepository) CreateReferral(ctx context.Context, tx usecase.Transaction, ref *domain.Referral) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`INSERT INTO referrals (id, referrer_id, referred_id, level, referral_code_id, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (referrer_id, referred_id) DO NOTHING`,
		ref.ID, ref.ReferrerID, ref.ReferredID, ref.Level, ref.ReferralCodeID, ref.Active, ref.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetDirectReferrer retrieves the level-1 edge pointing at a user.
func (r *ReferralRepository) GetDirectReferrer(ctx context.Context, referredID string) (*domain.Referral, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, referrer_id, referred_id, level, referral_code_id, active, created_at
		 FROM referrals WHERE referred_id = $1 AND level = 1`, referredID)
	return scanReferral(row)
}

// ListByReferred lists all edges pointing at a user, direct first.
func (r *ReferralRepository) ListByReferred(ctx context.Context, referredID string) ([]*domain.Referral, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, referrer_id, referred_id, level, referral_code_id, active, created_at
		 FROM referrals WHERE referred_id = $1 ORDER BY level`, referredID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []*domain.Referral
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// GetTier retrieves the commission tier for a (level, earning type) pair.
func (r *ReferralRepository) GetTier(ctx context.Context, level int, earningType domain.EarningType) (*domain.CommissionTier, error) {
	var t domain.CommissionTier
	err := r.pool.QueryRow(ctx,
		`SELECT id, level, earning_type, rate, active FROM commission_tiers
		 WHERE level = $1 AND earning_type = $2`,
		level, string(earningType)).Scan(&t.ID, &t.Level, &t.EarningType, &t.Rate, &t.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTierNotConfigured
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateEarning inserts a referral earning inside the caller's
// transaction. The insert is the signup dedup guard: ON CONFLICT on the
// partial (referrer, referred) signup index makes a second cascade for
// the same pair report zero rows, and a concurrent one blocks on the
// conflicting row until the first commits.
func (r *ReferralRepository) CreateEarning(ctx context.Context, tx usecase.Transaction, earning *domain.ReferralEarning) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`INSERT INTO referral_earnings (id, referrer_id, referred_user_id, referral_id, level, amount,
			commission_rate, earning_type, status, entry_id, created_at, approved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (referrer_id, referred_user_id) WHERE earning_type = 'signup' DO NOTHING`,
		earning.ID,
		earning.ReferrerID,
		earning.ReferredUserID,
		earning.ReferralID,
		earning.Level,
		earning.Amount,
		earning.CommissionRate,
		string(earning.EarningType),
		string(earning.Status),
		earning.EntryID,
		earning.CreatedAt,
		earning.ApprovedAt,
	)
	if err != nil {
		return false, mapLockError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetEarningByID retrieves an earning by ID.
func (r *ReferralRepository) GetEarningByID(ctx context.Context, id string) (*domain.ReferralEarning, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+earningColumns+` FROM referral_earnings WHERE id = $1`, id)
	return scanEarning(row)
}

// GetEarningByIDForUpdate retrieves an earning with a FOR UPDATE lock.
func (r *ReferralRepository) GetEarningByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ReferralEarning, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+earningColumns+` FROM referral_earnings WHERE id = $1 FOR UPDATE`, id)

	earning, err := scanEarning(row)
	if err != nil {
		return nil, mapLockError(err)
	}
	return earning, nil
}

// HasSignupEarning reports whether a signup earning already exists for
// the (referrer, referred) pair, inside the caller's transaction.
func (r *ReferralRepository) HasSignupEarning(ctx context.Context, tx usecase.Transaction, referrerID, referredID string) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var exists bool
	err := pgxTx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM referral_earnings
			WHERE referrer_id = $1 AND referred_user_id = $2 AND earning_type = $3
		)`,
		referrerID, referredID, string(domain.EarningTypeSignup)).Scan(&exists)
	return exists, err
}

// UpdateEarning persists status, entry link and approval time.
func (r *ReferralRepository) UpdateEarning(ctx context.Context, tx usecase.Transaction, earning *domain.ReferralEarning) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE referral_earnings
		 SET status = $2, entry_id = $3, approved_at = $4
		 WHERE id = $1`,
		earning.ID, string(earning.Status), earning.EntryID, earning.ApprovedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEarningNotFound
	}
	return nil
}

// ListEarningsByReferrer lists a referrer's earnings, newest first.
func (r *ReferralRepository) ListEarningsByReferrer(ctx context.Context, referrerID string, limit, offset int) ([]*domain.ReferralEarning, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+earningColumns+` FROM referral_earnings
		 WHERE referrer_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		referrerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var earnings []*domain.ReferralEarning
	for rows.Next() {
		earning, err := scanEarning(rows)
		if err != nil {
			return nil, err
		}
		earnings = append(earnings, earning)
	}
	return earnings, rows.Err()
}

// StatsByReferrer aggregates a referrer's network size and earnings.
func (r *ReferralRepository) StatsByReferrer(ctx context.Context, referrerID string) (*domain.ReferralStats, error) {
	var stats domain.ReferralStats

	err := r.pool.QueryRow(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE level = 1),
			COUNT(*) FILTER (WHERE level > 1)
		 FROM referrals WHERE referrer_id = $1 AND active`,
		referrerID).Scan(&stats.TotalReferrals, &stats.DirectReferrals, &stats.IndirectReferrals)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT
			COALESCE(SUM(amount) FILTER (WHERE status IN ($2, $3)), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = $4), 0),
			COALESCE(SUM(amount) FILTER (WHERE status <> $5), 0)
		 FROM referral_earnings WHERE referrer_id = $1`,
		referrerID,
		string(domain.EarningStatusPending), string(domain.EarningStatusApproved),
		string(domain.EarningStatusPaid),
		string(domain.EarningStatusCancelled),
	).Scan(&stats.PendingEarnings, &stats.PaidEarnings, &stats.TotalEarnings)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func scanReferralCode(row pgx.Row) (*domain.ReferralCode, error) {
	var c domain.ReferralCode
	err := row.Scan(&c.ID, &c.UserID, &c.Code, &c.Active, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReferralCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanReferral(row pgx.Row) (*domain.Referral, error) {
	var ref domain.Referral
	err := row.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.Level,
		&ref.ReferralCodeID, &ref.Active, &ref.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReferralNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func scanEarning(row pgx.Row) (*domain.ReferralEarning, error) {
	var e domain.ReferralEarning
	err := row.Scan(
		&e.ID,
		&e.ReferrerID,
		&e.ReferredUserID,
		&e.ReferralID,
		&e.Level,
		&e.Amount,
		&e.CommissionRate,
		&e.EarningType,
		&e.Status,
		&e.EntryID,
		&e.CreatedAt,
		&e.ApprovedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEarningNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
