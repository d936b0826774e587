package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ccmarketers/ledger/internal/domain"
)

const (
	pgErrUniqueViolation = "23505"
	pgErrLockNotAvail    = "55P03"
)

// isUniqueViolation checks for a unique constraint violation, optionally
// on a specific constraint name.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// mapLockError translates a lock timeout into the domain busy error so
// callers can surface a retryable condition instead of a raw PG error.
func mapLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrLockNotAvail {
		return domain.ErrBusy
	}
	return err
}
