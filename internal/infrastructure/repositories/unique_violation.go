package repositories

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolationCode is the PostgreSQL error code for a unique constraint
// violation.
const pgUniqueViolationCode = "23505"

// isUniqueViolation reports whether err came from a unique/primary-key
// constraint conflict, across both drivers go.mod carries: Postgres returns
// a structured pgconn.PgError, SQLite (used in tests) returns a plain string.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}
