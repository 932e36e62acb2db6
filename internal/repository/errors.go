package repository

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/y0lz/backend-json/internal/apperr"
)

// IsDuplicate - signals that the error is a duplicate key violation.
func IsDuplicate(err error) bool {
	var pgerr *pgconn.PgError
	return errors.As(err, &pgerr) && pgerr.Code == "23505"
}

// IsNotFound - signals that the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsRejected reports errors raised because the server refused the data:
// integrity constraint violations (class 23) and data exceptions (class 22).
func IsRejected(err error) bool {
	var pgerr *pgconn.PgError
	if !errors.As(err, &pgerr) {
		return false
	}
	return strings.HasPrefix(pgerr.Code, "23") || strings.HasPrefix(pgerr.Code, "22")
}

// IsConnection reports errors caused by the database being unreachable.
func IsConnection(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(err.Error(), "closed pool")
}

// MapError translates driver errors into the apperr taxonomy, keeping the cause.
func MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case IsNotFound(err):
		return apperr.ErrNotFound
	case IsRejected(err):
		return fmt.Errorf("%w: %w", apperr.ErrConstraintViolation, err)
	case IsConnection(err):
		return fmt.Errorf("%w: %w", apperr.ErrConnectionUnavailable, err)
	default:
		return err
	}
}
