package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrConstraintViolation wraps unique/foreign-key/check violations so
	// callers can treat them as entity-scoped failures rather than outages.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrConnection wraps connectivity-level failures.
	ErrConnection = errors.New("database connection failure")
)

// translateError maps raw pgx errors onto the repository's typed errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 23 is integrity constraint violation.
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23" {
			return fmt.Errorf("%w: %s", ErrConstraintViolation, pgErr.Message)
		}
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return err
}
