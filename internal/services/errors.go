package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoSuchUser is the login flavour of ErrUserNotFound.
	ErrNoSuchUser = ErrUserNotFound
	// ErrInvalidCredentials is returned when the password does not match the stored hash.
	ErrInvalidCredentials = errors.New("password doesn't match")
	// ErrInvalidID is returned for identifiers that are not well-formed UUIDs.
	ErrInvalidID = errors.New("invalid user id")
)

const pgUniqueViolation = "23505"

// isUniqueViolation recognizes unique-constraint failures from both supported drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}
