package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgForeignKeyCode   = "23503"
	pgDuplicateKeyCode = "23505"
)

// MapError translates database errors into the caller's domain errors.
// sql.ErrNoRows and foreign key violations (a referenced parent row is
// missing, e.g. inserting records for an unknown session) map to
// notFoundErr; unique violations map to duplicateErr. Other errors are
// returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyCode:
			return notFoundErr
		case pgDuplicateKeyCode:
			return duplicateErr
		}
	}

	return err
}
