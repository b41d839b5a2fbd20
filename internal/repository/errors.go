package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pgUniqueViolation = "23505"

	pgUsernameConstraint = "users_username_key"
	pgEmailConstraint    = "users_email_key"
)

// uniqueViolation maps a storage constraint error on users.username or
// users.email to the matching sentinel. It returns nil for anything else.
func uniqueViolation(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, "users.username"):
			return ErrDuplicateUsername
		case strings.Contains(msg, "users.email"):
			return ErrDuplicateEmail
		}
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case pgUsernameConstraint:
			return ErrDuplicateUsername
		case pgEmailConstraint:
			return ErrDuplicateEmail
		}
	}
	return nil
}
