package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidRegex        = "2201B"
)

var uniqueConstraints = map[string]*domain.DuplicateError{
	"airports_name_key":     {Entity: "airport", Field: "name"},
	"airports_iatacode_key": {Entity: "airport", Field: "iatacode"},
	"users_pkey":            {Entity: "user", Field: "userid"},
}

// translate turns driver errors into domain errors so callers only ever
// branch on domain values.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			if dup, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
				return &domain.DuplicateError{Entity: dup.Entity, Field: dup.Field}
			}
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
		case pgErr.Code == codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
		case pgErr.Code == codeCheckViolation:
			return domain.NewValidationError(pgErr.ColumnName, "value rejected by "+pgErr.ConstraintName)
		case pgErr.Code == codeInvalidRegex:
			return domain.NewValidationError("searchterm", "Invalid search pattern")
		case strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return err
}
