package repository

import (
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes raised by the schema guards and constraints.
const (
	sqlStateImmutable         = "SF001"
	sqlStateInvalidTransition = "SF002"
	sqlStateCheckViolation    = "23514"
	sqlStateUniqueViolation   = "23505"
	sqlStateForeignKey        = "23503"
)

// ErrDuplicate is returned when an insert collides with a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// mapPgError translates database guard and constraint failures into domain
// errors. Other errors are returned unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateImmutable:
		return fmt.Errorf("%w: %s", model.ErrIllegalMutation, pgErr.Message)
	case sqlStateInvalidTransition:
		return fmt.Errorf("%w: %s", model.ErrInvalidTransition, pgErr.Message)
	case sqlStateCheckViolation:
		if pgErr.ConstraintName == "variants_stock_check" {
			return fmt.Errorf("%w: %s", model.ErrInsufficientStock, pgErr.Message)
		}
	case sqlStateUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	case sqlStateForeignKey:
		return fmt.Errorf("%w: %s", model.ErrProductUnavailable, pgErr.ConstraintName)
	}
	return err
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
