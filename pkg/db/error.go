package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate key value violates unique constraint"): // postgres
		return true
	case strings.Contains(msg, "Error 1062"): // mysql
		return true
	case strings.Contains(msg, "UNIQUE constraint failed"): // sqlite
		return true
	}
	return false
}

// DuplicateKeyTarget returns a best-effort hint of the violated constraint:
// the postgres constraint name, or the column list reported by sqlite/mysql.
// Empty when err is not a duplicate key error.
func DuplicateKeyTarget(err error) string {
	if !IsDuplicateKeyErr(err) {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}

	msg := err.Error()
	if idx := strings.Index(msg, "UNIQUE constraint failed:"); idx >= 0 {
		return strings.TrimSpace(msg[idx+len("UNIQUE constraint failed:"):])
	}
	if idx := strings.Index(msg, "for key"); idx >= 0 {
		return strings.Trim(strings.TrimSpace(msg[idx+len("for key"):]), "'")
	}
	return msg
}
