package repository

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by repositories. Services translate these into
// the user-facing error taxonomy.
var (
	// ErrNotFound means the record does not exist or is soft-deactivated.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateCode means a unique code constraint was violated.
	ErrDuplicateCode = errors.New("duplicate code")
	// ErrConflict means a conditional update lost against a concurrent writer.
	ErrConflict = errors.New("conflicting concurrent update")
	// ErrInsufficientStock means a conditional stock decrement found less
	// stock than requested.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOperatingHoursRegression means the new counter value is below the
	// stored one.
	ErrOperatingHoursRegression = errors.New("operating hours regression")
	// ErrReversalOfReversal means the targeted ledger entry is itself a
	// reversal. Undoing a reversal is a fresh transaction, not another
	// reversal.
	ErrReversalOfReversal = errors.New("transaction is a reversal")
)

// psql builds queries with Postgres-style numbered placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
