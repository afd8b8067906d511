package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// ErrorMessage turns a persistence error into text that is safe to show a
// client. Unique violations name the offending field; everything else is
// generic.
func ErrorMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return uniqueMessage(pgErr.ConstraintName)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return uniqueMessage("")
	}
	return "Something went wrong"
}

// uniqueMessage derives the field from index names like idx_users_email.
func uniqueMessage(constraint string) string {
	field := "Email"
	if constraint != "" {
		parts := strings.Split(constraint, "_")
		last := parts[len(parts)-1]
		if last == "key" && len(parts) > 1 {
			last = parts[len(parts)-2]
		}
		if last != "" {
			field = strings.ToUpper(last[:1]) + last[1:]
		}
	}
	return field + " already exists"
}
