package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/dndb/pkg/types"
)

// Postgres SQLSTATE codes the gateway maps to engine errors.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// classify maps a failure to an engine error. Errors that already carry a
// kind pass through untouched so repositories keep control over NotFound,
// Forbidden and the rest. Driver errors never leak table or column names
// into the reason.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var e *types.Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case isUniqueViolation(err):
		return types.Wrap(types.KindConflict, err, "record already exists")
	case isTransientConflict(err):
		return &types.Error{
			Kind:      types.KindStorage,
			Reason:    "concurrent modification, retry the operation",
			Retryable: true,
			Err:       fmt.Errorf("%w: %w", types.ErrStorageConflict, err),
		}
	}
	return types.Storage(err, "storage failure")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		code := sqErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isTransientConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}
